package audit

import "time"

// Event is an immutable, append-only audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and ip capture are best-effort; never block business flows on
//   audit failures.
type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress captures the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers, depending on the event type.
	PhoneNumber string `json:"phone_number,omitempty" db:"phone_number"`
	CallID      string `json:"call_id,omitempty" db:"call_id"`
	DNCEntryID  string `json:"dnc_entry_id,omitempty" db:"dnc_entry_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeDNCAdd    EventType = "dnc_add"
	EventTypeDNCRemove EventType = "dnc_remove"

	// EventTypeForcedHangup records an admin ending another agent's call.
	EventTypeForcedHangup EventType = "forced_hangup"

	// EventTypeRestrictedDayDial records a dial placed on a Sunday or
	// federal holiday while policy only warns.
	EventTypeRestrictedDayDial EventType = "restricted_day_dial"
)
