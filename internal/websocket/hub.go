package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event is the change notification fanned out after a successful ledger
// mutation. It carries only the event kind and the affected participant;
// receivers treat it as an invalidation signal and re-fetch state.
type Event struct {
	Type          string `json:"type"`
	ParticipantID int64  `json:"participant_id"`
}

// Hub is the lifecycle-managed registry of live sessions, keyed by household.
// Sessions register on connect and deregister on disconnect; fan-out never
// crosses a household boundary.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to its household's session set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.householdID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.householdID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Safe to call more
// than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.householdID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.householdID)
		}
	}
	h.mu.Unlock()
}

// Broadcast delivers an event to every live session of the household.
// Best-effort and at-most-once: a full client buffer drops the event, a
// disconnected session receives nothing, and there is no replay log.
func (h *Hub) Broadcast(householdID int64, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[householdID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block the caller
		}
	}
}

// ClientCount returns the number of live sessions for a household.
func (h *Hub) ClientCount(householdID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[householdID])
}
