package sqlite

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_cache (
	account TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	email_count INTEGER NOT NULL,
	stored_at INTEGER NOT NULL
);
`

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, schema)
	return err
}
