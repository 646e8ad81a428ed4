package mqtt

import (
	"testing"
)

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got := rb.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	// Second drain should be empty
	got2 := rb.drainAll()
	if got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferFillToCapacity(t *testing.T) {
	cap := 10
	rb := newRingBuffer(cap)
	for i := 0; i < cap; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != cap {
		t.Fatalf("expected %d items, got %d", cap, len(got))
	}
	for i := 0; i < cap; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}
}

func TestRingBufferOverflow(t *testing.T) {
	cap := 5
	rb := newRingBuffer(cap)

	// Push cap+3 items (0..7), buffer should keep the most recent 5 (3..7)
	for i := 0; i < cap+3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != cap {
		t.Fatalf("expected %d items, got %d", cap, len(got))
	}
	for i := 0; i < cap; i++ {
		want := byte(i + 3) // oldest 3 were dropped
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	// Cycle 1: push 3, drain
	for i := 0; i < 3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got := rb.drainAll()
	if len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	// Cycle 2: push 4, drain
	for i := 10; i < 14; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got = rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		want := byte(10 + i)
		if msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestRingBufferLen(t *testing.T) {
	rb := newRingBuffer(10)
	if rb.len() != 0 {
		t.Errorf("expected len 0, got %d", rb.len())
	}

	rb.push(bufferedMsg{topic: "t"})
	rb.push(bufferedMsg{topic: "t"})
	if rb.len() != 2 {
		t.Errorf("expected len 2, got %d", rb.len())
	}

	rb.drainAll()
	if rb.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", rb.len())
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{
		topic:    "sensors/temperature/boiler",
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != "sensors/temperature/boiler" {
		t.Errorf("topic: got %s, want sensors/temperature/boiler", got[0].topic)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained: got false, want true")
	}
}

func TestRingBufferOverflowKeepsWrapOrder(t *testing.T) {
	rb := newRingBuffer(3)

	// Overflow, drain, then push fewer than capacity: head must restart at 0.
	for i := 0; i < 7; i++ {
		rb.push(bufferedMsg{payload: []byte{byte(i)}})
	}
	rb.drainAll()
	rb.push(bufferedMsg{payload: []byte{20}})
	rb.push(bufferedMsg{payload: []byte{21}})

	got := rb.drainAll()
	if len(got) != 2 || got[0].payload[0] != 20 || got[1].payload[0] != 21 {
		t.Errorf("after overflow and drain: got %v", got)
	}
	if rb.overflow {
		t.Error("overflow flag should reset on drain")
	}
}

func TestRingBufferReadingReplacesSameTopic(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{topic: "sensors/temperature/flow", payload: []byte("1"), retained: true})
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("startup"), qos: 1, retained: true})
	rb.push(bufferedMsg{topic: "sensors/temperature/tank", payload: []byte("2"), retained: true})
	rb.push(bufferedMsg{topic: "sensors/temperature/flow", payload: []byte("3"), retained: true})

	got := rb.drainAll()
	want := []string{"3", "startup", "2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if string(got[i].payload) != want[i] {
			t.Errorf("item %d: got %s, want %s", i, got[i].payload, want[i])
		}
	}
}

func TestRingBufferSystemEventsNotReplaced(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("startup"), qos: 1, retained: true})
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("heartbeat"), qos: 1})
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("shutdown"), qos: 1, retained: true})

	if rb.len() != 3 {
		t.Errorf("expected every system event kept, got %d", rb.len())
	}
}

func TestRingBufferReplaceAfterWrap(t *testing.T) {
	rb := newRingBuffer(3)
	rb.push(bufferedMsg{topic: "a", payload: []byte("a1"), retained: true})
	rb.push(bufferedMsg{topic: "b", payload: []byte("b1"), retained: true})
	rb.push(bufferedMsg{topic: "c", payload: []byte("c1"), retained: true})
	rb.push(bufferedMsg{topic: "d", payload: []byte("d1"), retained: true}) // drops a1
	rb.push(bufferedMsg{topic: "b", payload: []byte("b2"), retained: true})

	got := rb.drainAll()
	want := []string{"b2", "c1", "d1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if string(got[i].payload) != want[i] {
			t.Errorf("item %d: got %s, want %s", i, got[i].payload, want[i])
		}
	}
}
