package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteAppendAndReadAll(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := &Record{
		UserID:       "u1",
		DisplayName:  "Alice",
		Platform:     PlatformTwitter,
		Handle:       "alice",
		URL:          "https://twitter.com/alice/status/1",
		SubmittedAt:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Score:        0,
		ReviewStatus: StatusPending,
	}
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("Append did not assign an ID")
	}

	recs, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	got := recs[0]
	if got.UserID != "u1" || got.DisplayName != "Alice" {
		t.Errorf("identity = %q/%q, want u1/Alice", got.UserID, got.DisplayName)
	}
	if got.Platform != PlatformTwitter || got.Handle != "alice" {
		t.Errorf("platform/handle = %q/%q", got.Platform, got.Handle)
	}
	if got.URL != rec.URL {
		t.Errorf("URL = %q, want %q", got.URL, rec.URL)
	}
	if !got.SubmittedAt.Equal(rec.SubmittedAt) {
		t.Errorf("SubmittedAt = %v, want %v", got.SubmittedAt, rec.SubmittedAt)
	}
	if got.ReviewStatus != StatusPending {
		t.Errorf("ReviewStatus = %q, want Pending", got.ReviewStatus)
	}
}

func TestSQLiteUniqueConstraint(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := &Record{
		UserID:       "u1",
		Platform:     PlatformTwitter,
		URL:          "https://twitter.com/alice/status/1",
		SubmittedAt:  time.Now(),
		ReviewStatus: StatusPending,
	}
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("first Append failed: %v", err)
	}

	dup := &Record{
		UserID:       "u1",
		Platform:     PlatformTwitter,
		URL:          "https://twitter.com/alice/status/1",
		SubmittedAt:  time.Now(),
		ReviewStatus: StatusPending,
	}
	err := s.Append(ctx, dup)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Append error = %v, want ErrDuplicate", err)
	}

	// Same URL from a different user is fine.
	other := &Record{
		UserID:       "u2",
		Platform:     PlatformTwitter,
		URL:          "https://twitter.com/alice/status/1",
		SubmittedAt:  time.Now(),
		ReviewStatus: StatusPending,
	}
	if err := s.Append(ctx, other); err != nil {
		t.Errorf("Append for different user failed: %v", err)
	}
}

func TestSQLiteReadAllEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)

	recs, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records from empty store, want 0", len(recs))
	}
}

func TestSQLiteWriteLeaderboard(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	snapshot := []SnapshotRow{
		{Rank: 1, UserID: "u1", DisplayName: "Alice", Handle: "alice", Score: 50},
		{Rank: 2, UserID: "u2", DisplayName: "Bob", Score: 25},
	}
	if err := s.WriteLeaderboard(ctx, snapshot); err != nil {
		t.Fatalf("WriteLeaderboard failed: %v", err)
	}

	// A second write replaces the first completely.
	if err := s.WriteLeaderboard(ctx, snapshot[:1]); err != nil {
		t.Fatalf("second WriteLeaderboard failed: %v", err)
	}

	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM leaderboard_snapshot`).Scan(&count); err != nil {
		t.Fatalf("count snapshot rows: %v", err)
	}
	if count != 1 {
		t.Errorf("snapshot has %d rows, want 1", count)
	}
}
