package compliance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidNumber = errors.New("compliance: phone number is required")

// Service manages the DNC registry.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// AddToDNC lists a number. Duplicate numbers return ErrAlreadyListed; the
// registry keeps exactly one entry per number.
func (s *Service) AddToDNC(ctx context.Context, number, reason, addedByID string) (DNCEntry, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return DNCEntry{}, ErrInvalidNumber
	}

	e := DNCEntry{
		ID:          uuid.NewString(),
		PhoneNumber: number,
		Reason:      reason,
		AddedByID:   addedByID,
		AddedAt:     s.clock().UTC(),
	}
	if err := s.repo.Add(ctx, e); err != nil {
		return DNCEntry{}, err
	}
	return e, nil
}

func (s *Service) RemoveFromDNC(ctx context.Context, id string) error {
	return s.repo.Remove(ctx, id)
}

func (s *Service) ListDNC(ctx context.Context, offset, limit int) ([]DNCEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

// CheckDNC reports whether a number is listed, with the entry when it is.
func (s *Service) CheckDNC(ctx context.Context, number string) (DNCEntry, bool, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return DNCEntry{}, false, ErrInvalidNumber
	}
	return s.repo.Find(ctx, number)
}
