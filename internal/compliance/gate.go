package compliance

import (
	"context"
	"strings"
	"time"
)

// Gate answers whether a destination number may be dialed right now.
// It is a pure predicate over the DNC registry and wall-clock state; it has
// no side effects and runs before every dial attempt.
type Gate struct {
	repo Repository

	// blockRestrictedDays upgrades the Sunday/holiday restriction from a
	// warning to a hard block.
	blockRestrictedDays bool

	clock func() time.Time
}

type GateOption func(*Gate)

// WithRestrictedDayBlocking makes restricted days (Sundays, federal holidays)
// block dials instead of only flagging them.
func WithRestrictedDayBlocking(block bool) GateOption {
	return func(g *Gate) { g.blockRestrictedDays = block }
}

func WithClock(clock func() time.Time) GateOption {
	return func(g *Gate) { g.clock = clock }
}

func NewGate(repo Repository, opts ...GateOption) *Gate {
	g := &Gate{repo: repo, clock: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// BlockReason classifies why a number may not be dialed.
type BlockReason string

const (
	BlockReasonDNC           BlockReason = "dnc_listed"
	BlockReasonOutsideHours  BlockReason = "outside_calling_hours"
	BlockReasonRestrictedDay BlockReason = "restricted_day"
)

// Decision is the outcome of a compliance check for one number.
type Decision struct {
	Number  string      `json:"number"`
	Allowed bool        `json:"allowed"`
	Reason  BlockReason `json:"reason,omitempty"`
	Detail  string      `json:"detail,omitempty"`

	// RestrictedDay is set when the dial lands on a Sunday or federal
	// holiday but policy only warns. Callers may surface it to the agent.
	RestrictedDay string `json:"restricted_day,omitempty"`
}

// CheckDialable checks one destination number against the DNC registry.
// Time-of-day is not considered here; immediate agent-initiated dials are
// always in the agent's working window. Use CheckSchedulable for scheduled
// dialing.
func (g *Gate) CheckDialable(ctx context.Context, number string) (Decision, error) {
	number = strings.TrimSpace(number)
	d := Decision{Number: number}

	entry, listed, err := g.repo.Find(ctx, number)
	if err != nil {
		return Decision{}, err
	}
	if listed {
		d.Allowed = false
		d.Reason = BlockReasonDNC
		d.Detail = entry.Reason
		return d, nil
	}

	d.Allowed = true
	return d, nil
}

// CheckSchedulable checks a number for a dial at a specific recipient-local
// time. The calling window is 08:00-21:00 inclusive; Sundays and federal
// holidays block or warn depending on policy.
func (g *Gate) CheckSchedulable(ctx context.Context, number string, at time.Time, loc *time.Location) (Decision, error) {
	d, err := g.CheckDialable(ctx, number)
	if err != nil || !d.Allowed {
		return d, err
	}

	if !IsWithinCallingWindow(at, loc) {
		d.Allowed = false
		d.Reason = BlockReasonOutsideHours
		return d, nil
	}

	if restricted, day := RestrictedDay(at, loc); restricted {
		d.RestrictedDay = day
		if g.blockRestrictedDays {
			d.Allowed = false
			d.Reason = BlockReasonRestrictedDay
		}
	}
	return d, nil
}

// PartitionDialable splits candidate numbers into allowed and blocked sets,
// preserving input order within each partition. Used by the parallel dial
// coordinator to drop blocked numbers without failing the whole batch.
func (g *Gate) PartitionDialable(ctx context.Context, numbers []string) (allowed []string, blocked []Decision, err error) {
	trimmed := make([]string, len(numbers))
	for i, n := range numbers {
		trimmed[i] = strings.TrimSpace(n)
	}

	listed, err := g.repo.FindAny(ctx, trimmed)
	if err != nil {
		return nil, nil, err
	}

	for _, n := range trimmed {
		if e, ok := listed[n]; ok {
			blocked = append(blocked, Decision{
				Number:  n,
				Allowed: false,
				Reason:  BlockReasonDNC,
				Detail:  e.Reason,
			})
			continue
		}
		allowed = append(allowed, n)
	}
	return allowed, blocked, nil
}
