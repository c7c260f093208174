package hub

import (
	"testing"

	"github.com/canlink/slcan-gateway/internal/slcan"
)

func testFrame(t *testing.T, raw uint32) slcan.Frame {
	t.Helper()
	id, err := slcan.NewStandardID(raw)
	if err != nil {
		t.Fatal(err)
	}
	f, err := slcan.NewDataFrame(id, []byte{byte(raw)})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func newTestClient(buf int) *Client {
	return &Client{Out: make(chan slcan.Frame, buf), Closed: make(chan struct{})}
}

func TestAddRemoveCount(t *testing.T) {
	h := New()
	a := newTestClient(1)
	b := newTestClient(1)
	h.Add(a)
	h.Add(b)
	if h.Count() != 2 {
		t.Fatalf("Count = %d, want 2", h.Count())
	}
	h.Remove(a)
	h.Remove(a) // idempotent
	if h.Count() != 1 {
		t.Fatalf("Count = %d, want 1", h.Count())
	}
	select {
	case <-a.Closed:
	default:
		t.Fatal("removed client not closed")
	}
}

func TestBroadcastDelivers(t *testing.T) {
	h := New()
	a := newTestClient(4)
	b := newTestClient(4)
	h.Add(a)
	h.Add(b)

	f := testFrame(t, 0x123)
	h.Broadcast(f)
	for _, c := range []*Client{a, b} {
		select {
		case got := <-c.Out:
			if got != f {
				t.Fatalf("got %+v, want %+v", got, f)
			}
		default:
			t.Fatal("frame not delivered")
		}
	}
}

// With PolicyDrop a wedged client loses frames but never blocks Broadcast,
// and other clients keep receiving.
func TestBroadcastDropPolicy(t *testing.T) {
	h := New()
	h.Policy = PolicyDrop
	slow := newTestClient(1)
	fast := newTestClient(8)
	h.Add(slow)
	h.Add(fast)

	for i := uint32(0); i < 4; i++ {
		h.Broadcast(testFrame(t, 0x100+i))
	}
	if n := len(fast.Out); n != 4 {
		t.Fatalf("fast client got %d frames, want 4", n)
	}
	if n := len(slow.Out); n != 1 {
		t.Fatalf("slow client buffered %d frames, want 1", n)
	}
	select {
	case <-slow.Closed:
		t.Fatal("drop policy closed the client")
	default:
	}
}

// With PolicyKick a wedged client is closed instead of losing frames quietly.
func TestBroadcastKickPolicy(t *testing.T) {
	h := New()
	h.Policy = PolicyKick
	slow := newTestClient(1)
	h.Add(slow)

	h.Broadcast(testFrame(t, 0x200))
	h.Broadcast(testFrame(t, 0x201)) // buffer full, client kicked
	select {
	case <-slow.Closed:
	default:
		t.Fatal("kick policy did not close the client")
	}
}
