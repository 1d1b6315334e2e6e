package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Event is one message pushed to connected softphone clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	EventCallUpdate = "call_update"
	EventSystem     = "system"
)

// sendBuffer bounds how far a slow client may fall behind before the hub
// drops its connection.
const sendBuffer = 32

// Connection is one registered client. An agent may hold several at once
// (multiple tabs); each gets every event addressed to the agent, in order.
type Connection struct {
	ID      string
	AgentID string
	Role    string

	send chan Event

	mu     sync.Mutex
	closed bool
}

// Events exposes the outbound stream consumed by the write pump.
func (c *Connection) Events() <-chan Event { return c.send }

func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// trySend queues the event without blocking. Sends and close are serialized
// on the connection mutex, so a delivery racing an unregister can never hit
// a closed channel. Returns false when the client's buffer is full.
func (c *Connection) trySend(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Hub fans events out to connections grouped by agent id. Delivery is
// best-effort: a connection that cannot keep up is dropped rather than
// allowed to stall the sender.
type Hub struct {
	log *slog.Logger

	mu    sync.RWMutex
	conns map[string]map[string]*Connection
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:   log,
		conns: map[string]map[string]*Connection{},
	}
}

// Register adds a connection for the agent and returns it.
func (h *Hub) Register(agentID, role string) *Connection {
	c := &Connection{
		ID:      uuid.NewString(),
		AgentID: agentID,
		Role:    role,
		send:    make(chan Event, sendBuffer),
	}

	h.mu.Lock()
	byConn := h.conns[agentID]
	if byConn == nil {
		byConn = map[string]*Connection{}
		h.conns[agentID] = byConn
	}
	byConn[c.ID] = c
	h.mu.Unlock()

	h.log.Info("realtime client connected", "agent_id", agentID, "connection_id", c.ID)
	return c
}

// Unregister removes the connection and closes its event stream. Safe to
// call more than once.
func (h *Hub) Unregister(c *Connection) {
	removed := false
	h.mu.Lock()
	if byConn, ok := h.conns[c.AgentID]; ok {
		if _, present := byConn[c.ID]; present {
			delete(byConn, c.ID)
			removed = true
			if len(byConn) == 0 {
				delete(h.conns, c.AgentID)
			}
		}
	}
	h.mu.Unlock()

	c.close()
	if removed {
		h.log.Info("realtime client disconnected", "agent_id", c.AgentID, "connection_id", c.ID)
	}
}

// Notify delivers an event to every connection of one agent.
func (h *Hub) Notify(agentID string, ev Event) {
	h.mu.RLock()
	targets := h.snapshot(h.conns[agentID])
	h.mu.RUnlock()

	h.deliver(targets, ev)
}

// Broadcast delivers an event to every connection, optionally skipping the
// one that originated it. Other connections of the same agent still receive
// the event.
func (h *Hub) Broadcast(ev Event, exclude *Connection) {
	h.mu.RLock()
	var targets []*Connection
	for _, byConn := range h.conns {
		for _, c := range byConn {
			if exclude != nil && c.ID == exclude.ID {
				continue
			}
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, ev)
}

// NotifyRole delivers an event to every connection whose client holds the
// given role, optionally skipping one agent id (typically the agent who
// already received the event directly).
func (h *Hub) NotifyRole(role string, ev Event, excludeAgentID string) {
	h.mu.RLock()
	var targets []*Connection
	for agentID, byConn := range h.conns {
		if agentID == excludeAgentID {
			continue
		}
		for _, c := range byConn {
			if c.Role == role {
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, ev)
}

// AgentConnected reports whether the agent has at least one live connection.
func (h *Hub) AgentConnected(agentID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[agentID]) > 0
}

func (h *Hub) snapshot(byConn map[string]*Connection) []*Connection {
	if len(byConn) == 0 {
		return nil
	}
	out := make([]*Connection, 0, len(byConn))
	for _, c := range byConn {
		out = append(out, c)
	}
	return out
}

func (h *Hub) deliver(targets []*Connection, ev Event) {
	for _, c := range targets {
		if !c.trySend(ev) {
			// Full buffer means the client stopped reading.
			h.log.Warn("dropping stalled realtime client",
				"agent_id", c.AgentID, "connection_id", c.ID)
			h.Unregister(c)
		}
	}
}
