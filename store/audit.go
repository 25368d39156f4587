package store

import (
	"context"
	"fmt"
	"time"
)

// Audit outcomes. The trail records refused and failed mutations too, not
// just the ones that went through.
const (
	AuditSuccess = "success"
	AuditFailed  = "failed"
)

// AuditEntry is one administrative action in the trail.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ipAddress"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// AppendAudit records who did what to whom, from where, and how it went.
// An empty Status means success. Failures here must not abort the action
// being audited; callers log and move on.
func (s *Store) AppendAudit(ctx context.Context, e AuditEntry) error {
	if e.Status == "" {
		e.Status = AuditSuccess
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_log (username, action, target, details, ip_address, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.Username, e.Action, e.Target, e.Details, e.IPAddress, e.Status, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns one page of the trail, newest first, plus the total
// number of entries.
func (s *Store) ListAudit(ctx context.Context, limit, offset int) ([]AuditEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, action, target, details, ip_address, status, created_at FROM audit_log ORDER BY id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Target, &e.Details, &e.IPAddress, &e.Status, &created); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, total, nil
}
