package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// Audit is internal-only; records are not exposed to agents. Callers treat
// audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogDNCChange records an addition to or removal from the DNC registry.
func (s *Service) LogDNCChange(ctx context.Context, added bool, actorUserID, actorRole, ip, number, entryID, reason string) error {
	t := EventTypeDNCAdd
	msg := "number added to dnc"
	if !added {
		t = EventTypeDNCRemove
		msg = "number removed from dnc"
	}
	return s.Append(ctx, Event{
		Type:        t,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		PhoneNumber: number,
		DNCEntryID:  entryID,
		Message:     msg,
		Metadata:    reason,
	})
}

// LogForcedHangup records an admin ending a call they do not own.
func (s *Service) LogForcedHangup(ctx context.Context, actorUserID, actorRole, ip, callID string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeForcedHangup,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		CallID:      callID,
		Message:     "call ended by admin",
	})
}

// LogRestrictedDayDial records a warned dial on a Sunday or federal holiday.
func (s *Service) LogRestrictedDayDial(ctx context.Context, actorUserID, number, day string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeRestrictedDayDial,
		ActorUserID: actorUserID,
		PhoneNumber: number,
		Message:     "dial placed on restricted day",
		Metadata:    day,
	})
}
