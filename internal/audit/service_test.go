package audit

import (
	"context"
	"errors"
	"testing"
)

func TestAppendFillsDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	err := svc.Append(context.Background(), Event{Type: EventTypeDNCAdd, PhoneNumber: "+15551234567"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	events := repo.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d", len(events))
	}
	if events[0].ID == "" {
		t.Error("id not generated")
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestAppendRejectsMissingType(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	err := svc.Append(context.Background(), Event{Message: "no type"})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("error = %v, want ErrInvalidEvent", err)
	}
}

func TestLogDNCChange(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.LogDNCChange(ctx, true, "admin-1", "admin", "10.0.0.1", "+15551234567", "d1", "customer request"); err != nil {
		t.Fatalf("LogDNCChange add: %v", err)
	}
	if err := svc.LogDNCChange(ctx, false, "admin-1", "admin", "10.0.0.1", "+15551234567", "d1", ""); err != nil {
		t.Fatalf("LogDNCChange remove: %v", err)
	}

	events := repo.Events()
	if len(events) != 2 {
		t.Fatalf("len(events) = %d", len(events))
	}
	if events[0].Type != EventTypeDNCAdd || events[1].Type != EventTypeDNCRemove {
		t.Errorf("types = %q, %q", events[0].Type, events[1].Type)
	}
	if events[0].Metadata != "customer request" {
		t.Errorf("metadata = %q", events[0].Metadata)
	}
}

func TestLogForcedHangup(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogForcedHangup(context.Background(), "admin-1", "admin", "10.0.0.1", "sess-9"); err != nil {
		t.Fatalf("LogForcedHangup: %v", err)
	}
	events := repo.Events()
	if len(events) != 1 || events[0].CallID != "sess-9" {
		t.Fatalf("events = %+v", events)
	}
}
