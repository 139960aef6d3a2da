package mqtt

import (
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// doneToken is a paho.Token that has already completed.
type doneToken struct{ done chan struct{} }

func newDoneToken() doneToken {
	t := doneToken{done: make(chan struct{})}
	close(t.done)
	return t
}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{}        { return t.done }
func (doneToken) Error() error                   { return nil }

// stubClient implements the parts of paho.Client the publisher uses.
// onCheck, if set, runs once after the first connection check.
type stubClient struct {
	paho.Client

	mu      sync.Mutex
	open    bool
	topics  []string
	onCheck func()
}

func (c *stubClient) IsConnectionOpen() bool {
	c.mu.Lock()
	open := c.open
	hook := c.onCheck
	c.onCheck = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return open
}

func (c *stubClient) Publish(topic string, _ byte, _ bool, _ interface{}) paho.Token {
	c.mu.Lock()
	c.topics = append(c.topics, topic)
	c.mu.Unlock()
	return newDoneToken()
}

func (c *stubClient) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *stubClient) published() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.topics...)
}

func TestPublishDuringConnectIsFlushed(t *testing.T) {
	client := &stubClient{}
	p := &RealPublisher{
		client: client,
		log:    zerolog.Nop(),
		outbox: newOutbox(outboxCapacity, zerolog.Nop()),
	}

	// The broker comes up right after Publish sees the connection closed.
	flushed := make(chan struct{})
	client.onCheck = func() {
		go func() {
			client.setOpen(true)
			p.flush()
			close(flushed)
		}()
		time.Sleep(20 * time.Millisecond)
	}

	if err := p.Publish(PinEvent{Timestamp: time.Now(), Name: "door", Channel: 4, Value: 1}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case <-flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("flush did not finish")
	}

	if got := client.published(); len(got) != 1 || got[0] != TopicEvents {
		t.Errorf("expected the event to be sent once on %s, got %v", TopicEvents, got)
	}
	p.mu.Lock()
	left := p.outbox.len()
	p.mu.Unlock()
	if left != 0 {
		t.Errorf("expected empty outbox after flush, got %d queued", left)
	}
}

func TestPublishSystemSendsWhenConnected(t *testing.T) {
	client := &stubClient{open: true}
	p := &RealPublisher{
		client: client,
		log:    zerolog.Nop(),
		outbox: newOutbox(outboxCapacity, zerolog.Nop()),
	}

	if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}
	if got := client.published(); len(got) != 1 || got[0] != TopicSystem {
		t.Errorf("expected one system message, got %v", got)
	}
	if p.outbox.len() != 0 {
		t.Error("nothing should be queued while connected")
	}
}
