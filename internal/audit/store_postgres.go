package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists audit entries in PostgreSQL. The serial seq column
// gives retention a total order independent of timestamp ties between
// concurrent writers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_entries (
			id, recorded_at, player_id, player_name, action,
			media_type, platform, decision, reason, context, actor
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.Timestamp, entry.PlayerID, entry.PlayerName, entry.Action,
		entry.MediaType, entry.Platform, entry.Decision, entry.Reason, entry.Context, entry.Actor,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteOldest(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	query := `
		DELETE FROM audit_entries
		WHERE seq IN (SELECT seq FROM audit_entries ORDER BY seq ASC LIMIT $1)
	`
	if _, err := s.db.ExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("trim audit entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, recorded_at, player_id, player_name, action,
		       media_type, platform, decision, reason, context, actor
		FROM audit_entries
		ORDER BY seq DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) ListSince(ctx context.Context, since time.Time) ([]Entry, error) {
	query := `
		SELECT id, recorded_at, player_id, player_name, action,
		       media_type, platform, decision, reason, context, actor
		FROM audit_entries
		WHERE recorded_at >= $1
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list audit entries since: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID, &entry.Timestamp, &entry.PlayerID, &entry.PlayerName, &entry.Action,
			&entry.MediaType, &entry.Platform, &entry.Decision, &entry.Reason, &entry.Context, &entry.Actor,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}
