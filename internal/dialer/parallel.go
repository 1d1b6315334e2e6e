package dialer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dialdesk/internal/calls"
	"dialdesk/internal/compliance"
)

var ErrNoNumbers = errors.New("dialer: at least one number is required")

// ErrTooManyNumbers rejects a parallel batch above the per-request cap. The
// whole request fails; nothing is dialed.
type ErrTooManyNumbers struct {
	Requested int
	Max       int
}

func (e *ErrTooManyNumbers) Error() string {
	return fmt.Sprintf("dialer: %d numbers requested, maximum is %d", e.Requested, e.Max)
}

// DialFailure records one number whose dial attempt did not go through.
type DialFailure struct {
	Number string `json:"number"`
	Error  string `json:"error"`
}

// BatchResult is the aggregate outcome of one parallel dial. Blocked numbers
// and provider failures are reported per number; they never fail the batch.
type BatchResult struct {
	Calls   []calls.CallSession   `json:"calls"`
	Blocked []compliance.Decision `json:"blocked"`
	Failed  []DialFailure         `json:"failed"`
}

// DialMany dials up to MaxParallel numbers concurrently for one agent.
// Compliance runs first on the whole batch; blocked numbers are dropped and
// reported while the rest proceed. Returns once every attempt settles.
func (s *Service) DialMany(ctx context.Context, agentID string, numbers []string, p DialParams) (BatchResult, error) {
	if len(numbers) == 0 {
		return BatchResult{}, ErrNoNumbers
	}
	if len(numbers) > s.maxParallel {
		return BatchResult{}, &ErrTooManyNumbers{Requested: len(numbers), Max: s.maxParallel}
	}

	allowed, blocked, err := s.gate.PartitionDialable(ctx, numbers)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Blocked: blocked}
	if len(allowed) == 0 {
		return result, nil
	}

	type outcome struct {
		sess calls.CallSession
		err  error
	}
	outcomes := make([]outcome, len(allowed))

	var wg sync.WaitGroup
	for i, number := range allowed {
		wg.Add(1)
		go func(i int, number string) {
			defer wg.Done()
			params := p
			params.To = number
			sess, err := s.Dial(ctx, agentID, params)
			outcomes[i] = outcome{sess: sess, err: err}
		}(i, number)
	}
	wg.Wait()

	for i, o := range outcomes {
		switch {
		case o.err == nil:
			result.Calls = append(result.Calls, o.sess)
		default:
			var be *BlockedError
			if errors.As(o.err, &be) {
				result.Blocked = append(result.Blocked, be.Decision)
				continue
			}
			result.Failed = append(result.Failed, DialFailure{
				Number: allowed[i],
				Error:  publicDialError(o.err),
			})
		}
	}

	s.log.Info("parallel dial settled",
		"agent_id", agentID,
		"requested", len(numbers),
		"placed", len(result.Calls),
		"blocked", len(result.Blocked),
		"failed", len(result.Failed))
	return result, nil
}

// publicDialError maps internal failures to agent-safe strings.
func publicDialError(err error) string {
	if errors.Is(err, ErrTooManyActiveCalls) {
		return "concurrent call limit reached"
	}
	return "dial failed"
}
