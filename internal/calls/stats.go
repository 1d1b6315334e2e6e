package calls

import "context"

// Stats aggregates call history for the agent dashboard. Admins aggregate
// across all agents; agents only their own (ListFilter.AgentID).
type Stats struct {
	TotalCalls    int `json:"total_calls"`
	AnsweredCalls int `json:"answered_calls"`

	CompletedCalls int `json:"completed_calls"`
	FailedCalls    int `json:"failed_calls"`
	BusyCalls      int `json:"busy_calls"`
	NoAnswerCalls  int `json:"no_answer_calls"`

	// ConnectRate is answered/total in percent.
	ConnectRate float64 `json:"connect_rate"`

	TotalDurationSeconds   int     `json:"total_duration"`
	AverageDurationSeconds float64 `json:"average_duration"`
}

// Summarize computes Stats over the sessions matching f. The filter limit is
// widened to cover the full range; callers pass date bounds, not pages.
func (s *Store) Summarize(ctx context.Context, f ListFilter) (Stats, error) {
	f.Offset = 0
	f.Limit = 10000

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return Stats{}, err
	}

	var out Stats
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		switch c.Status {
		case CallStatusCompleted:
			out.CompletedCalls++
			out.AnsweredCalls++
		case CallStatusFailed:
			out.FailedCalls++
			if c.AnsweredAt != nil {
				out.AnsweredCalls++
			}
		case CallStatusBusy:
			out.BusyCalls++
		case CallStatusNoAnswer:
			out.NoAnswerCalls++
		}
	}

	if out.TotalCalls > 0 {
		out.ConnectRate = float64(out.AnsweredCalls) / float64(out.TotalCalls) * 100
	}
	if out.AnsweredCalls > 0 {
		out.AverageDurationSeconds = float64(out.TotalDurationSeconds) / float64(out.AnsweredCalls)
	}
	return out, nil
}
