package mqtt

// outboundMsg is a serialized message waiting for the broker.
type outboundMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds at most capacity messages while the broker is unreachable.
// When full the oldest message is discarded. Callers synchronize access.
type outbox struct {
	slots []outboundMsg
	first int // index of the oldest message
	n     int

	// dropped counts discards since the last take.
	dropped int
}

func newOutbox(capacity int) *outbox {
	return &outbox{slots: make([]outboundMsg, capacity)}
}

// add queues msg and reports whether this is the first discard since the
// outbox was last emptied.
func (o *outbox) add(msg outboundMsg) bool {
	capacity := len(o.slots)
	if o.n < capacity {
		o.slots[(o.first+o.n)%capacity] = msg
		o.n++
		return false
	}
	o.slots[o.first] = msg
	o.first = (o.first + 1) % capacity
	o.dropped++
	return o.dropped == 1
}

// take empties the outbox, returning messages oldest first and the number
// that were discarded to make room for them.
func (o *outbox) take() ([]outboundMsg, int) {
	if o.n == 0 {
		return nil, 0
	}
	out := make([]outboundMsg, 0, o.n)
	for i := 0; i < o.n; i++ {
		out = append(out, o.slots[(o.first+i)%len(o.slots)])
	}
	dropped := o.dropped
	o.first, o.n, o.dropped = 0, 0, 0
	return out, dropped
}

func (o *outbox) size() int {
	return o.n
}
