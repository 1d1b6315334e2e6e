package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo stores audit events in the audit_events table.
//
// Assumed schema:
//   audit_events(id TEXT PK, type TEXT, actor_user_id TEXT, actor_role TEXT,
//                ip_address TEXT, phone_number TEXT, call_id TEXT,
//                dnc_entry_id TEXT, message TEXT, metadata TEXT,
//                created_at TIMESTAMPTZ)
//
// The table is INSERT-only; retention is handled out of band.
type PostgresRepo struct {
	DB *sql.DB
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events
  (id, type, actor_user_id, actor_role, ip_address,
   phone_number, call_id, dnc_entry_id, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := r.DB.ExecContext(ctx, q,
		e.ID, string(e.Type), e.ActorUserID, e.ActorRole, e.IPAddress,
		e.PhoneNumber, e.CallID, e.DNCEntryID, e.Message, e.Metadata, e.CreatedAt)
	return err
}
