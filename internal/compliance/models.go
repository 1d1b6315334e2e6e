package compliance

import "time"

// DNCEntry is a phone number barred from outbound dialing.
// At most one entry exists per number; entries are exact E.164 matches.
type DNCEntry struct {
	ID          string    `json:"id" db:"id"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Reason      string    `json:"reason,omitempty" db:"reason"`
	AddedByID   string    `json:"added_by_id,omitempty" db:"added_by_id"`
	AddedAt     time.Time `json:"added_at" db:"added_at"`
}
