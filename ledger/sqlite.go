package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the ledger in a local SQLite database. Unlike the
// workbook backend it pushes the (user, url) uniqueness down into the
// schema, so Append reports ErrDuplicate even if the dedup check raced.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and
// initializes the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		platform TEXT NOT NULL,
		handle TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		submitted_at DATETIME NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		review_status TEXT NOT NULL DEFAULT 'Pending',
		UNIQUE(user_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions(user_id);

	CREATE TABLE IF NOT EXISTS leaderboard_snapshot (
		rank INTEGER PRIMARY KEY,
		user_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		handle TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL,
		written_at DATETIME NOT NULL
	);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Append inserts one submission row. A missing ID is filled in.
func (s *SQLiteStore) Append(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := `
	INSERT INTO submissions (id, user_id, display_name, platform, handle, url, submitted_at, score, review_status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.conn.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.DisplayName,
		string(rec.Platform),
		rec.Handle,
		rec.URL,
		rec.SubmittedAt.UTC().Format(time.RFC3339),
		rec.Score,
		string(rec.ReviewStatus),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("append submission: %w", err)
	}
	return nil
}

// ReadAll returns every submission row, oldest first.
func (s *SQLiteStore) ReadAll(ctx context.Context) ([]Record, error) {
	query := `
	SELECT id, user_id, display_name, platform, handle, url, submitted_at, score, review_status
	FROM submissions ORDER BY submitted_at
	`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var platform, status, submittedAt string
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.DisplayName,
			&platform,
			&rec.Handle,
			&rec.URL,
			&submittedAt,
			&rec.Score,
			&status,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		rec.Platform = Platform(platform)
		rec.ReviewStatus = ReviewStatus(status)
		if ts, err := time.Parse(time.RFC3339, submittedAt); err == nil {
			rec.SubmittedAt = ts
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// WriteLeaderboard replaces the stored leaderboard snapshot.
func (s *SQLiteStore) WriteLeaderboard(ctx context.Context, snapshot []SnapshotRow) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leaderboard_snapshot`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, row := range snapshot {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO leaderboard_snapshot (rank, user_id, display_name, handle, score, written_at)
		VALUES (?, ?, ?, ?, ?, ?)
		`, row.Rank, row.UserID, row.DisplayName, row.Handle, row.Score, now)
		if err != nil {
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}

	return tx.Commit()
}
