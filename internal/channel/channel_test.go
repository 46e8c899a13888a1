package channel

import "testing"

func TestBufferedSendReceive(t *testing.T) {
	ch := NewBuffered[int](4)
	ch.Send(1)
	ch.Send(2)

	if ch.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ch.Len())
	}
	if got := <-ch.Receive(); got != 1 {
		t.Errorf("received %d, want 1", got)
	}
}

func TestBufferedTrySend(t *testing.T) {
	ch := NewBuffered[string](1)

	if !ch.TrySend("a") {
		t.Error("TrySend into empty buffer should succeed")
	}
	if ch.TrySend("b") {
		t.Error("TrySend into full buffer should fail")
	}
	if got := <-ch.Receive(); got != "a" {
		t.Errorf("received %q, want a", got)
	}
}

func TestBufferedClose(t *testing.T) {
	ch := NewBuffered[int](1)
	ch.Send(7)
	ch.Close()

	if got := <-ch.Receive(); got != 7 {
		t.Errorf("received %d, want 7", got)
	}
	if _, ok := <-ch.Receive(); ok {
		t.Error("expected closed channel")
	}
}
