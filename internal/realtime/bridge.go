package realtime

import (
	"dialdesk/internal/calls"
	"dialdesk/internal/rbac"
)

// CallNotifier forwards session status changes to the owning agent's
// connections and mirrors them to connected admin consoles. It satisfies
// the session store's notifier hook.
type CallNotifier struct {
	hub *Hub
}

func NewCallNotifier(hub *Hub) *CallNotifier {
	return &CallNotifier{hub: hub}
}

func (n *CallNotifier) CallUpdated(change calls.StatusChange) {
	ev := Event{
		Type: EventCallUpdate,
		Payload: map[string]any{
			"call":     change.Session,
			"previous": change.Previous,
			"status":   change.Current,
		},
	}
	n.hub.Notify(change.Session.AgentID, ev)
	n.hub.NotifyRole(rbac.RoleAdmin, ev, change.Session.AgentID)
}
