package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// outboxCapacity bounds the messages kept while disconnected.
const outboxCapacity = 256

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are queued and sent on reconnect.
type RealPublisher struct {
	client paho.Client
	log    zerolog.Logger

	mu        sync.Mutex
	outbox    *outbox
	connected bool // set after the first successful connect
}

// NewRealPublisher creates a publisher connected to the given broker.
// An OFFLINE system message is registered as last will.
func NewRealPublisher(broker, clientID string, log zerolog.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		log:    log,
		outbox: newOutbox(outboxCapacity, log),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		return nil, errors.Wrap(err, "format will payload")
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.flush() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, errors.New("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrap(err, "connect to broker")
	}
	return p, nil
}

// Publish sends a pin event at QoS 0 without waiting for delivery, so the
// polling loop is never held up by the network.
func (p *RealPublisher) Publish(event PinEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return errors.Wrap(err, "format payload")
	}
	if p.queueIfOffline(queuedMsg{topic: TopicEvents, payload: payload}) {
		return nil
	}
	token := p.client.Publish(TopicEvents, 0, false, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			p.log.Warn().Err(err).Str("sensor", event.Name).Msg("publish failed")
		}
	}()
	return nil
}

// PublishSystem sends a system lifecycle event at QoS 1 and waits for it.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return errors.Wrap(err, "format system payload")
	}
	msg := queuedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}
	if p.queueIfOffline(msg) {
		return nil
	}
	return p.send(msg)
}

func (p *RealPublisher) send(msg queuedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.Errorf("publish to %s timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publish to %s", msg.topic)
	}
	return nil
}

// queueIfOffline holds mu across the connection check so a message is
// either sent directly or queued before flush drains the outbox.
func (p *RealPublisher) queueIfOffline(msg queuedMsg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client.IsConnectionOpen() {
		return false
	}
	p.outbox.push(msg)
	return true
}

// flush sends everything queued while disconnected. Runs on the paho
// connect callback goroutine.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	msgs, dropped := p.outbox.drain()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	if len(msgs) > 0 || dropped > 0 {
		p.log.Info().Int("queued", len(msgs)).Int("dropped", dropped).Msg("mqtt connected, flushing outbox")
	}
	for _, m := range msgs {
		if err := p.send(m); err != nil {
			p.log.Warn().Err(err).Msg("flush failed")
		}
	}
	if !reconnect {
		return
	}
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
	if err == nil {
		p.client.Publish(TopicSystem, 1, false, payload)
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
