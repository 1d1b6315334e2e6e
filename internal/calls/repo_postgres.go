package calls

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
)

// PostgresRepo stores sessions in the call_sessions and call_recordings
// tables.
//
// Assumed schema:
//   call_sessions(id TEXT PK, provider_call_id TEXT UNIQUE, agent_id TEXT,
//                 contact_id TEXT, campaign_id TEXT, direction TEXT,
//                 from_number TEXT, to_number TEXT, status TEXT,
//                 duration INT, created_at TIMESTAMPTZ,
//                 answered_at TIMESTAMPTZ NULL, ended_at TIMESTAMPTZ NULL,
//                 disposition TEXT, notes TEXT)
//   call_recordings(id TEXT PK, session_id TEXT REFERENCES call_sessions,
//                   provider_recording_id TEXT UNIQUE, url TEXT,
//                   archive_url TEXT, duration INT, created_at TIMESTAMPTZ)
type PostgresRepo struct {
	DB *sql.DB
}

const sessionColumns = `
id, provider_call_id, agent_id, contact_id, campaign_id, direction,
from_number, to_number, status, duration, created_at, answered_at, ended_at,
disposition, notes
`

func scanSession(row interface{ Scan(...any) error }) (CallSession, error) {
	var s CallSession
	var providerID, contactID, campaignID, disposition, notes sql.NullString
	var answeredAt, endedAt sql.NullTime
	err := row.Scan(
		&s.ID,
		&providerID,
		&s.AgentID,
		&contactID,
		&campaignID,
		&s.Direction,
		&s.FromNumber,
		&s.ToNumber,
		&s.Status,
		&s.DurationSeconds,
		&s.CreatedAt,
		&answeredAt,
		&endedAt,
		&disposition,
		&notes,
	)
	if err != nil {
		return CallSession{}, err
	}
	s.ProviderCallID = providerID.String
	s.ContactID = contactID.String
	s.CampaignID = campaignID.String
	s.Disposition = disposition.String
	s.Notes = notes.String
	if answeredAt.Valid {
		t := answeredAt.Time
		s.AnsweredAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return s, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, s CallSession) error {
	const q = `
INSERT INTO call_sessions (` + sessionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`
	_, err := r.DB.ExecContext(ctx, q,
		s.ID,
		nullStr(s.ProviderCallID),
		s.AgentID,
		nullStr(s.ContactID),
		nullStr(s.CampaignID),
		s.Direction,
		s.FromNumber,
		s.ToNumber,
		s.Status,
		s.DurationSeconds,
		s.CreatedAt,
		s.AnsweredAt,
		s.EndedAt,
		nullStr(s.Disposition),
		nullStr(s.Notes),
	)
	return err
}

func (r *PostgresRepo) Update(ctx context.Context, s CallSession) error {
	const q = `
UPDATE call_sessions SET
  provider_call_id = $2,
  status = $3,
  duration = $4,
  answered_at = $5,
  ended_at = $6,
  disposition = $7,
  notes = $8
WHERE id = $1
`
	res, err := r.DB.ExecContext(ctx, q,
		s.ID,
		nullStr(s.ProviderCallID),
		s.Status,
		s.DurationSeconds,
		s.AnsweredAt,
		s.EndedAt,
		nullStr(s.Disposition),
		nullStr(s.Notes),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (CallSession, bool, error) {
	const q = `SELECT ` + sessionColumns + ` FROM call_sessions WHERE id = $1`
	s, err := scanSession(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallSession{}, false, nil
		}
		return CallSession{}, false, err
	}
	return s, true, nil
}

func (r *PostgresRepo) GetByProviderID(ctx context.Context, providerCallID string) (CallSession, bool, error) {
	const q = `SELECT ` + sessionColumns + ` FROM call_sessions WHERE provider_call_id = $1`
	s, err := scanSession(r.DB.QueryRowContext(ctx, q, providerCallID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallSession{}, false, nil
		}
		return CallSession{}, false, err
	}
	return s, true, nil
}

func (r *PostgresRepo) List(ctx context.Context, f ListFilter) ([]CallSession, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + sessionColumns + ` FROM call_sessions WHERE 1=1`)

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.AgentID != "" {
		b.WriteString(" AND agent_id = " + arg(f.AgentID))
	}
	if f.Status != "" {
		b.WriteString(" AND status = " + arg(f.Status))
	}
	if !f.From.IsZero() {
		b.WriteString(" AND created_at >= " + arg(f.From))
	}
	if !f.To.IsZero() {
		b.WriteString(" AND created_at <= " + arg(f.To))
	}
	b.WriteString(" ORDER BY created_at DESC")
	b.WriteString(" OFFSET " + arg(f.Offset))
	b.WriteString(" LIMIT " + arg(f.Limit))

	rows, err := r.DB.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpsertRecording(ctx context.Context, rec CallRecording) error {
	const q = `
INSERT INTO call_recordings (id, session_id, provider_recording_id, url, archive_url, duration, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (provider_recording_id) DO UPDATE
SET url = EXCLUDED.url, archive_url = EXCLUDED.archive_url, duration = EXCLUDED.duration
`
	_, err := r.DB.ExecContext(ctx, q,
		rec.ID,
		rec.SessionID,
		rec.ProviderRecordingID,
		rec.URL,
		nullStr(rec.ArchiveURL),
		rec.DurationSeconds,
		rec.CreatedAt,
	)
	return err
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
