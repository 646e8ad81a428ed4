package mqtt

import "log"

// bufferedMsg is a serialized message waiting for the broker to come back.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// supersedes reports whether m makes an older buffered msg pointless to send.
// Only retained QoS 0 readings qualify: the broker keeps just the last one
// per topic anyway. System events are always replayed in full.
func (m bufferedMsg) supersedes(old bufferedMsg) bool {
	return m.retained && m.qos == 0 &&
		old.retained && old.qos == 0 &&
		m.topic == old.topic
}

// ringBuffer holds messages published while disconnected, oldest first.
// A new reading replaces the buffered reading for the same sensor in place,
// so a long outage costs one slot per sensor rather than one per cycle.
// When full, the oldest message is dropped.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type ringBuffer struct {
	buf      []bufferedMsg
	capacity int
	head     int // next write position
	count    int
	overflow bool // a message was dropped since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buf:      make([]bufferedMsg, capacity),
		capacity: capacity,
	}
}

// slot returns the buffer index of the i'th oldest message.
func (r *ringBuffer) slot(i int) int {
	return (r.head - r.count + i + r.capacity) % r.capacity
}

func (r *ringBuffer) push(msg bufferedMsg) {
	for i := 0; i < r.count; i++ {
		if j := r.slot(i); msg.supersedes(r.buf[j]) {
			r.buf[j] = msg
			return
		}
	}

	if r.count == r.capacity {
		if !r.overflow {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", r.capacity)
			r.overflow = true
		}
		// head points at the oldest message when full
		r.buf[r.head] = msg
		r.head = (r.head + 1) % r.capacity
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % r.capacity
	r.count++
}

func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	out := make([]bufferedMsg, r.count)
	for i := range out {
		out[i] = r.buf[r.slot(i)]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
