package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CachedAnalysis is a stored inbox analysis. Payload is opaque JSON owned
// by the triage service.
type CachedAnalysis struct {
	Account    string
	Payload    []byte
	EmailCount int
	StoredAt   time.Time
}

// PutAnalysis stores the analysis for an account, replacing the previous one.
func (s *Store) PutAnalysis(ctx context.Context, c CachedAnalysis) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO analysis_cache (account, payload, email_count, stored_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET
			payload = excluded.payload,
			email_count = excluded.email_count,
			stored_at = excluded.stored_at`,
		c.Account, c.Payload, c.EmailCount, c.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store analysis for %s: %w", c.Account, err)
	}
	return nil
}

// GetAnalysis returns the stored analysis for account, or ErrNotFound.
func (s *Store) GetAnalysis(ctx context.Context, account string) (*CachedAnalysis, error) {
	c := &CachedAnalysis{Account: account}
	var storedAt int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT payload, email_count, stored_at FROM analysis_cache WHERE account = ?`, account,
	).Scan(&c.Payload, &c.EmailCount, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis for %s: %w", account, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis for %s: %w", account, err)
	}
	c.StoredAt = time.UnixMilli(storedAt)
	return c, nil
}

// DeleteAnalysis removes the stored analysis for account.
func (s *Store) DeleteAnalysis(ctx context.Context, account string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM analysis_cache WHERE account = ?`, account); err != nil {
		return fmt.Errorf("failed to delete analysis for %s: %w", account, err)
	}
	return nil
}
