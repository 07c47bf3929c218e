package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, householdID int64) *Client {
	return &Client{
		hub:         hub,
		conn:        nil,
		householdID: householdID,
		send:        make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(1); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(1); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 1)
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(1, Event{Type: "chore_approved", ParticipantID: 42})

	// Check both clients received the event
	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "chore_approved" {
				t.Errorf("expected type chore_approved, got %s", got.Type)
			}
			if got.ParticipantID != 42 {
				t.Errorf("expected participant_id 42, got %d", got.ParticipantID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for event")
		}
	}

	hub.Unregister(c1)
	hub.Unregister(c2)
}

func TestBroadcastHouseholdScoped(t *testing.T) {
	hub := NewHub(slog.Default())

	home := mockClient(hub, 1)
	other := mockClient(hub, 2)
	hub.Register(home)
	hub.Register(other)

	hub.Broadcast(1, Event{Type: "reward_redeemed", ParticipantID: 7})

	select {
	case <-home.send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event in own household")
	}

	select {
	case data := <-other.send:
		t.Fatalf("client in other household received event: %s", data)
	default:
	}

	hub.Unregister(home)
	hub.Unregister(other)
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast(1, Event{Type: "chore_completed", ParticipantID: 1})
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, 1)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(1, Event{Type: "chore_submitted", ParticipantID: int64(i)})
	}

	// This should drop the event, not panic or block
	hub.Broadcast(1, Event{Type: "chore_submitted", ParticipantID: 999})

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d events, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, broadcast, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(householdID int64) {
			defer wg.Done()
			c := mockClient(hub, householdID)
			hub.Register(c)
			hub.Broadcast(householdID, Event{Type: "balance_reset", ParticipantID: 0})
			// Drain any events
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(int64(i % 3))
	}

	wg.Wait()

	for id := int64(0); id < 3; id++ {
		if got := hub.ClientCount(id); got != 0 {
			t.Errorf("household %d: expected 0 clients after concurrent test, got %d", id, got)
		}
	}
}
