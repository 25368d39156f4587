package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrPolicyNotFound = errors.New("quota policy not found")

// QuotaPolicy is a named limit preset that can be applied to users.
type QuotaPolicy struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SoftLimitMB int64  `json:"softLimitMB"`
	HardLimitMB int64  `json:"hardLimitMB"`
	Description string `json:"description"`
}

// ListPolicies returns all presets ordered by name.
func (s *Store) ListPolicies(ctx context.Context) ([]QuotaPolicy, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, soft_limit_mb, hard_limit_mb, description FROM quota_policies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list quota policies: %w", err)
	}
	defer rows.Close()

	policies := []QuotaPolicy{}
	for rows.Next() {
		var p QuotaPolicy
		if err := rows.Scan(&p.ID, &p.Name, &p.SoftLimitMB, &p.HardLimitMB, &p.Description); err != nil {
			return nil, fmt.Errorf("scan quota policy: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quota policies: %w", err)
	}
	return policies, nil
}

// GetPolicy returns one preset by id.
func (s *Store) GetPolicy(ctx context.Context, id int64) (QuotaPolicy, error) {
	var p QuotaPolicy
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, soft_limit_mb, hard_limit_mb, description FROM quota_policies WHERE id = ?", id,
	).Scan(&p.ID, &p.Name, &p.SoftLimitMB, &p.HardLimitMB, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return QuotaPolicy{}, ErrPolicyNotFound
	}
	if err != nil {
		return QuotaPolicy{}, fmt.Errorf("get quota policy: %w", err)
	}
	return p, nil
}

// CreatePolicy inserts a preset and returns its id. Names are unique.
func (s *Store) CreatePolicy(ctx context.Context, p QuotaPolicy) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO quota_policies (name, soft_limit_mb, hard_limit_mb, description) VALUES (?, ?, ?, ?)",
		p.Name, p.SoftLimitMB, p.HardLimitMB, p.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("create quota policy: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create quota policy: %w", err)
	}
	return id, nil
}

// DeletePolicy removes a preset by id.
func (s *Store) DeletePolicy(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM quota_policies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete quota policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quota policy: %w", err)
	}
	if n == 0 {
		return ErrPolicyNotFound
	}
	return nil
}

// SeedDefaultPolicy makes sure a "Default" preset exists with the configured
// limits. Existing presets are left alone.
func (s *Store) SeedDefaultPolicy(ctx context.Context, softMB, hardMB int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO quota_policies (name, soft_limit_mb, hard_limit_mb, description) VALUES (?, ?, ?, ?)",
		"Default", softMB, hardMB, "Standard allowance for new users",
	)
	if err != nil {
		return fmt.Errorf("seed default quota policy: %w", err)
	}
	return nil
}
