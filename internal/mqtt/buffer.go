package mqtt

import "github.com/rs/zerolog"

// queuedMsg is a serialized message held while the broker is unreachable.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO of queued messages. When full, the oldest
// message is dropped. Not safe for concurrent use; RealPublisher guards it.
type outbox struct {
	log     zerolog.Logger
	msgs    []queuedMsg
	next    int // slot for the next push
	size    int
	dropped int // since the last drain
}

func newOutbox(capacity int, log zerolog.Logger) *outbox {
	return &outbox{
		log:  log,
		msgs: make([]queuedMsg, capacity),
	}
}

func (o *outbox) push(msg queuedMsg) {
	capacity := len(o.msgs)
	if o.size == capacity {
		if o.dropped == 0 {
			o.log.Warn().Int("capacity", capacity).Msg("outbox full, dropping oldest messages")
		}
		o.dropped++
	} else {
		o.size++
	}
	o.msgs[o.next] = msg
	o.next = (o.next + 1) % capacity
}

// drain returns queued messages oldest first, plus the number dropped
// since the previous drain, and empties the outbox.
func (o *outbox) drain() ([]queuedMsg, int) {
	dropped := o.dropped
	o.dropped = 0
	if o.size == 0 {
		return nil, dropped
	}
	capacity := len(o.msgs)
	first := (o.next - o.size + capacity) % capacity
	out := make([]queuedMsg, 0, o.size)
	for i := 0; i < o.size; i++ {
		out = append(out, o.msgs[(first+i)%capacity])
	}
	o.next = 0
	o.size = 0
	return out, dropped
}

func (o *outbox) len() int {
	return o.size
}
