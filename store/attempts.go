package store

import (
	"fmt"
	"time"
)

// RecordAttempt stores one login attempt. Times are kept as unix seconds.
func (s *Store) RecordAttempt(username, ip string, success bool) error {
	_, err := s.db.Exec(
		"INSERT INTO login_attempts (username, ip, success, attempted_at) VALUES (?, ?, ?, ?)",
		username, ip, success, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

// CountFailed counts failed attempts for username strictly after since.
func (s *Store) CountFailed(username string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM login_attempts WHERE username = ? AND success = 0 AND attempted_at > ?",
		username, since.Unix(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failed attempts: %w", err)
	}
	return n, nil
}

// PruneAttempts deletes attempts older than the cutoff and reports how many
// rows went away. Meant to run periodically so the table stays small.
func (s *Store) PruneAttempts(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM login_attempts WHERE attempted_at < ?", olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune login attempts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune login attempts: %w", err)
	}
	return n, nil
}
