package calls

import "time"

// Direction of a call leg.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// CallStatus is the lifecycle state of a call session.
type CallStatus string

const (
	CallStatusInitiated CallStatus = "initiated"
	CallStatusRinging   CallStatus = "ringing"
	CallStatusAnswered  CallStatus = "answered"
	CallStatusCompleted CallStatus = "completed"
	CallStatusBusy      CallStatus = "busy"
	CallStatusNoAnswer  CallStatus = "no_answer"
	CallStatusFailed    CallStatus = "failed"
)

// CallSession represents one telephony call, inbound or outbound.
//
// Sessions are audit records: they are created at dial initiation (before the
// provider confirms) and never deleted. ProviderCallID is assigned
// asynchronously once the provider accepts the dial and may be briefly empty.
type CallSession struct {
	ID             string `json:"id" db:"id"`
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	AgentID    string `json:"agent_id" db:"agent_id"`
	ContactID  string `json:"contact_id,omitempty" db:"contact_id"`
	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`

	Direction  Direction  `json:"direction" db:"direction"`
	FromNumber string     `json:"from_number" db:"from_number"`
	ToNumber   string     `json:"to_number" db:"to_number"`
	Status     CallStatus `json:"status" db:"status"`

	// DurationSeconds is derived from answered/ended timestamps and is not
	// authoritative until the call reaches a terminal status.
	DurationSeconds int `json:"duration" db:"duration"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty" db:"answered_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	Disposition string `json:"disposition,omitempty" db:"disposition"`
	Notes       string `json:"notes,omitempty" db:"notes"`
}

// CallRecording holds provider recording metadata for a session.
// The current design assumes at most one recording per call.
type CallRecording struct {
	ID                  string    `json:"id" db:"id"`
	SessionID           string    `json:"session_id" db:"session_id"`
	ProviderRecordingID string    `json:"provider_recording_id" db:"provider_recording_id"`
	URL                 string    `json:"url" db:"url"`
	ArchiveURL          string    `json:"archive_url,omitempty" db:"archive_url"`
	DurationSeconds     int       `json:"duration" db:"duration"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// StatusChange describes one applied transition, delivered to the realtime
// notifier after the session has been persisted.
type StatusChange struct {
	Session   CallSession `json:"session"`
	Previous  CallStatus  `json:"previous"`
	Current   CallStatus  `json:"current"`
	EventTime time.Time   `json:"event_time"`
}

// ListFilter narrows call history queries. AgentID is mandatory for agents
// and optional for admins, enforced at the API layer.
type ListFilter struct {
	AgentID string
	Status  CallStatus
	From    time.Time
	To      time.Time
	Offset  int
	Limit   int
}
