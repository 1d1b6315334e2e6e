package realtime

import (
	"sync"
	"testing"
	"time"

	"dialdesk/internal/calls"
	"dialdesk/internal/rbac"
)

func recvEvent(t *testing.T, c *Connection) Event {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatal("connection closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, c *Connection) {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		if ok {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
	}
}

func TestNotifyReachesOnlyTargetAgent(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Register("agent-a", rbac.RoleAgent)
	b := hub.Register("agent-b", rbac.RoleAgent)

	hub.Notify("agent-a", Event{Type: EventSystem, Payload: "hello"})

	ev := recvEvent(t, a)
	if ev.Type != EventSystem || ev.Payload != "hello" {
		t.Fatalf("got %+v", ev)
	}
	assertNoEvent(t, b)
}

func TestNotifyFansOutToAllAgentConnections(t *testing.T) {
	hub := NewHub(nil)
	tab1 := hub.Register("agent-a", rbac.RoleAgent)
	tab2 := hub.Register("agent-a", rbac.RoleAgent)

	hub.Notify("agent-a", Event{Type: EventSystem})

	recvEvent(t, tab1)
	recvEvent(t, tab2)
}

func TestNotifyPreservesOrderPerConnection(t *testing.T) {
	hub := NewHub(nil)
	c := hub.Register("agent-a", rbac.RoleAgent)

	for _, payload := range []string{"first", "second", "third"} {
		hub.Notify("agent-a", Event{Type: EventSystem, Payload: payload})
	}
	for _, want := range []string{"first", "second", "third"} {
		if ev := recvEvent(t, c); ev.Payload != want {
			t.Fatalf("got %v, want %v", ev.Payload, want)
		}
	}
}

func TestBroadcastExcludesOnlyOriginatingConnection(t *testing.T) {
	hub := NewHub(nil)
	origin := hub.Register("agent-a", rbac.RoleAgent)
	otherTab := hub.Register("agent-a", rbac.RoleAgent)
	b := hub.Register("agent-b", rbac.RoleAgent)

	hub.Broadcast(Event{Type: EventSystem}, origin)

	recvEvent(t, b)
	recvEvent(t, otherTab)
	assertNoEvent(t, origin)
}

func TestBroadcastWithoutExclusion(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Register("agent-a", rbac.RoleAgent)
	b := hub.Register("agent-b", rbac.RoleAgent)

	hub.Broadcast(Event{Type: EventSystem}, nil)

	recvEvent(t, a)
	recvEvent(t, b)
}

func TestStalledConnectionIsDropped(t *testing.T) {
	hub := NewHub(nil)
	c := hub.Register("agent-a", rbac.RoleAgent)

	// Never read; overflow the buffer.
	for i := 0; i < sendBuffer+1; i++ {
		hub.Notify("agent-a", Event{Type: EventSystem, Payload: i})
	}

	if hub.AgentConnected("agent-a") {
		t.Fatal("stalled connection still registered")
	}

	// Channel is closed after the drop; drain to confirm.
	n := 0
	for range c.Events() {
		n++
	}
	if n != sendBuffer {
		t.Fatalf("drained %d events, want %d", n, sendBuffer)
	}

	// Delivery to remaining agents keeps working.
	fresh := hub.Register("agent-a", rbac.RoleAgent)
	hub.Notify("agent-a", Event{Type: EventSystem})
	recvEvent(t, fresh)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	c := hub.Register("agent-a", rbac.RoleAgent)
	hub.Unregister(c)
	hub.Unregister(c)
	if hub.AgentConnected("agent-a") {
		t.Fatal("agent still connected after unregister")
	}
}

func TestCallNotifierRoutesToOwningAgent(t *testing.T) {
	hub := NewHub(nil)
	owner := hub.Register("agent-a", rbac.RoleAgent)
	other := hub.Register("agent-b", rbac.RoleAgent)

	n := NewCallNotifier(hub)
	n.CallUpdated(calls.StatusChange{
		Session:  calls.CallSession{ID: "sess-1", AgentID: "agent-a"},
		Previous: calls.CallStatusRinging,
		Current:  calls.CallStatusAnswered,
	})

	ev := recvEvent(t, owner)
	if ev.Type != EventCallUpdate {
		t.Fatalf("type = %q", ev.Type)
	}
	payload, ok := ev.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload = %T", ev.Payload)
	}
	if payload["status"] != calls.CallStatusAnswered {
		t.Errorf("status = %v", payload["status"])
	}
	assertNoEvent(t, other)
}

func TestCallNotifierMirrorsToAdmins(t *testing.T) {
	hub := NewHub(nil)
	owner := hub.Register("agent-a", rbac.RoleAgent)
	admin := hub.Register("admin-1", rbac.RoleAdmin)
	bystander := hub.Register("agent-b", rbac.RoleAgent)

	n := NewCallNotifier(hub)
	n.CallUpdated(calls.StatusChange{
		Session: calls.CallSession{ID: "sess-1", AgentID: "agent-a"},
		Current: calls.CallStatusCompleted,
	})

	if ev := recvEvent(t, owner); ev.Type != EventCallUpdate {
		t.Fatalf("owner event type = %q", ev.Type)
	}
	if ev := recvEvent(t, admin); ev.Type != EventCallUpdate {
		t.Fatalf("admin event type = %q", ev.Type)
	}
	assertNoEvent(t, bystander)
}

func TestCallNotifierDoesNotDoubleSendToAdminOwner(t *testing.T) {
	hub := NewHub(nil)
	adminOwner := hub.Register("admin-1", rbac.RoleAdmin)

	n := NewCallNotifier(hub)
	n.CallUpdated(calls.StatusChange{
		Session: calls.CallSession{ID: "sess-1", AgentID: "admin-1"},
		Current: calls.CallStatusCompleted,
	})

	recvEvent(t, adminOwner)
	assertNoEvent(t, adminOwner)
}

func TestDeliverAfterUnregisterDoesNotPanic(t *testing.T) {
	hub := NewHub(nil)
	c := hub.Register("agent-a", rbac.RoleAgent)

	// A notifier can snapshot the connection, lose the race to an
	// unregister, and send afterwards. The send must be a no-op, not a
	// panic on the closed channel.
	stale := []*Connection{c}
	hub.Unregister(c)
	hub.deliver(stale, Event{Type: EventSystem})
}

func TestConcurrentNotifyAndUnregister(t *testing.T) {
	hub := NewHub(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c := hub.Register("agent-a", rbac.RoleAgent)
				go hub.Notify("agent-a", Event{Type: EventSystem})
				hub.Unregister(c)
			}
		}()
	}
	wg.Wait()
}
