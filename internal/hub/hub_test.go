package hub

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

// fakeConn satisfies Conn without a network.
type fakeConn struct{}

func (fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, fmt.Errorf("closed") }
func (fakeConn) WriteMessage(int, []byte) error    { return nil }
func (fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (fakeConn) SetPongHandler(func(string) error) {}
func (fakeConn) Close() error                      { return nil }

// nextFrame pops one queued frame from the client, failing if none arrives.
func nextFrame(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case frame := <-c.send:
		var msg Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			t.Fatalf("bad frame %q: %v", frame, err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no frame queued")
		return Message{}
	}
}

func TestHub_JoinPublishLeave(t *testing.T) {
	t.Parallel()

	h := New(16)
	client := h.NewClient(fakeConn{})

	h.Join(client, "ABCDEF")
	if got := h.MemberCount("ABCDEF"); got != 1 {
		t.Fatalf("expected 1 member, got %d", got)
	}

	// Join emits the membership-count event to the room.
	msg := nextFrame(t, client)
	if msg.Event != "room:members" {
		t.Fatalf("expected room:members, got %q", msg.Event)
	}

	h.Publish("ABCDEF", "stop:added", map[string]string{"id": "stop-1"})
	msg = nextFrame(t, client)
	if msg.Event != "stop:added" {
		t.Errorf("expected stop:added, got %q", msg.Event)
	}
	var data map[string]string
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("bad data: %v", err)
	}
	if data["id"] != "stop-1" {
		t.Errorf("expected payload id stop-1, got %v", data)
	}

	h.Leave(client, "ABCDEF")
	if got := h.MemberCount("ABCDEF"); got != 0 {
		t.Errorf("expected 0 members after leave, got %d", got)
	}

	h.Publish("ABCDEF", "stop:added", map[string]string{"id": "stop-2"})
	select {
	case frame := <-client.send:
		t.Errorf("expected no delivery after leave, got %s", frame)
	default:
	}
}

func TestHub_PublishToUnknownRoomIsNoop(t *testing.T) {
	t.Parallel()

	h := New(16)
	h.Publish("ZZZZZZ", "trip:updated", map[string]string{})
	if got := h.MemberCount("ZZZZZZ"); got != 0 {
		t.Errorf("expected empty room, got %d members", got)
	}
}

func TestHub_FanOutOrderingIdenticalAcrossSubscribers(t *testing.T) {
	t.Parallel()

	h := New(64)
	a := h.NewClient(fakeConn{})
	b := h.NewClient(fakeConn{})
	h.Join(a, "ABCDEF")
	h.Join(b, "ABCDEF")

	// Drain the membership events (a sees two joins, b sees one).
	nextFrame(t, a)
	nextFrame(t, a)
	nextFrame(t, b)

	const n = 20
	for i := 0; i < n; i++ {
		h.Publish("ABCDEF", "stop:added", map[string]int{"seq": i})
	}

	seq := func(c *Client) []int {
		out := make([]int, 0, n)
		for i := 0; i < n; i++ {
			msg := nextFrame(t, c)
			var data map[string]int
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				t.Fatalf("bad data: %v", err)
			}
			out = append(out, data["seq"])
		}
		return out
	}

	seqA, seqB := seq(a), seq(b)
	for i := 0; i < n; i++ {
		if seqA[i] != i {
			t.Fatalf("client A saw event %d at position %d", seqA[i], i)
		}
		if seqB[i] != i {
			t.Fatalf("client B saw event %d at position %d", seqB[i], i)
		}
	}
}

func TestHub_SlowClientDropsFramesWithoutBlocking(t *testing.T) {
	t.Parallel()

	h := New(2)
	client := h.NewClient(fakeConn{})
	h.Join(client, "ABCDEF")

	// Nothing drains client.send; the buffer holds the join event plus one
	// more frame. Publishing past that must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish("ABCDEF", "stop:added", map[string]int{"seq": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow client")
	}
}

func TestHub_DisconnectDropsAllRooms(t *testing.T) {
	t.Parallel()

	h := New(16)
	client := h.NewClient(fakeConn{})
	h.Join(client, "ABCDEF")
	h.Join(client, "GHJKLM")

	client.Close()

	if got := h.MemberCount("ABCDEF"); got != 0 {
		t.Errorf("expected 0 members in first room, got %d", got)
	}
	if got := h.MemberCount("GHJKLM"); got != 0 {
		t.Errorf("expected 0 members in second room, got %d", got)
	}

	// Close is idempotent.
	client.Close()
}

func TestHub_MultipleConnectionsSameTrip(t *testing.T) {
	t.Parallel()

	h := New(16)
	clients := make([]*Client, 3)
	for i := range clients {
		clients[i] = h.NewClient(fakeConn{})
		h.Join(clients[i], "ABCDEF")
	}

	if got := h.MemberCount("ABCDEF"); got != 3 {
		t.Fatalf("expected 3 members, got %d", got)
	}

	clients[1].Close()
	if got := h.MemberCount("ABCDEF"); got != 2 {
		t.Errorf("expected 2 members after one disconnect, got %d", got)
	}
}
