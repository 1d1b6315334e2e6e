package compliance

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seededRepo(t *testing.T, numbers ...string) *MemoryRepo {
	t.Helper()
	repo := NewMemoryRepo()
	for i, n := range numbers {
		err := repo.Add(context.Background(), DNCEntry{
			ID:          n,
			PhoneNumber: n,
			Reason:      "opt-out",
			AddedAt:     time.Unix(int64(1700000000+i), 0),
		})
		if err != nil {
			t.Fatalf("seed %s: %v", n, err)
		}
	}
	return repo
}

func TestCheckDialable_BlocksListedNumbers(t *testing.T) {
	gate := NewGate(seededRepo(t, "+15550000001"))

	d, err := gate.CheckDialable(context.Background(), "+15550000001")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if d.Allowed {
		t.Fatalf("expected listed number to be blocked")
	}
	if d.Reason != BlockReasonDNC {
		t.Fatalf("expected dnc reason, got %q", d.Reason)
	}

	d, err = gate.CheckDialable(context.Background(), "+15550000002")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected unlisted number to be allowed")
	}
}

func TestCheckDialable_ExactMatchOnly(t *testing.T) {
	gate := NewGate(seededRepo(t, "+15550000001"))
	d, err := gate.CheckDialable(context.Background(), "+1555000000")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("substring of a listed number must not be blocked")
	}
}

func TestCheckSchedulable_OutsideHoursBlocked(t *testing.T) {
	gate := NewGate(seededRepo(t))
	at := time.Date(2025, time.January, 7, 23, 30, 0, 0, time.UTC)
	d, err := gate.CheckSchedulable(context.Background(), "+15550000009", at, time.UTC)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if d.Allowed || d.Reason != BlockReasonOutsideHours {
		t.Fatalf("expected outside-hours block, got %+v", d)
	}
}

func TestCheckSchedulable_RestrictedDayPolicy(t *testing.T) {
	sunday := time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)

	// Default policy: warn only.
	gate := NewGate(seededRepo(t))
	d, err := gate.CheckSchedulable(context.Background(), "+15550000009", sunday, time.UTC)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !d.Allowed || d.RestrictedDay != "sunday" {
		t.Fatalf("expected allowed-with-warning, got %+v", d)
	}

	// Strict policy: block.
	gate = NewGate(seededRepo(t), WithRestrictedDayBlocking(true))
	d, err = gate.CheckSchedulable(context.Background(), "+15550000009", sunday, time.UTC)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if d.Allowed || d.Reason != BlockReasonRestrictedDay {
		t.Fatalf("expected restricted-day block, got %+v", d)
	}
}

func TestPartitionDialable_PreservesOrder(t *testing.T) {
	gate := NewGate(seededRepo(t, "+15550000002", "+15550000004"))

	in := []string{"+15550000001", "+15550000002", "+15550000003", "+15550000004"}
	allowed, blocked, err := gate.PartitionDialable(context.Background(), in)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}

	if len(allowed) != 2 || allowed[0] != "+15550000001" || allowed[1] != "+15550000003" {
		t.Fatalf("unexpected allowed partition: %v", allowed)
	}
	if len(blocked) != 2 || blocked[0].Number != "+15550000002" || blocked[1].Number != "+15550000004" {
		t.Fatalf("unexpected blocked partition: %+v", blocked)
	}
	for _, b := range blocked {
		if b.Allowed || b.Reason != BlockReasonDNC {
			t.Fatalf("blocked decision malformed: %+v", b)
		}
	}
}

func TestServiceAddToDNC_DuplicateErrors(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if _, err := svc.AddToDNC(context.Background(), "+15550000001", "customer request", "admin-1"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := svc.AddToDNC(context.Background(), "+15550000001", "again", "admin-1")
	if !errors.Is(err, ErrAlreadyListed) {
		t.Fatalf("expected ErrAlreadyListed, got %v", err)
	}
}

func TestServiceCheckDNC(t *testing.T) {
	svc := NewService(seededRepo(t, "+15550000001"))
	_, listed, err := svc.CheckDNC(context.Background(), "+15550000001")
	if err != nil || !listed {
		t.Fatalf("expected listed, got %v %v", listed, err)
	}
	_, listed, err = svc.CheckDNC(context.Background(), "+15550000002")
	if err != nil || listed {
		t.Fatalf("expected unlisted, got %v %v", listed, err)
	}
}
