package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func newTestWorkbookStore(t *testing.T) *WorkbookStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.xlsx")
	s, err := NewWorkbookStore(path)
	if err != nil {
		t.Fatalf("NewWorkbookStore failed: %v", err)
	}
	return s
}

func TestWorkbookCreatesSheets(t *testing.T) {
	s := newTestWorkbookStore(t)

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		t.Fatalf("open created workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{detailsSheet, leaderboardSheet} {
		idx, err := f.GetSheetIndex(sheet)
		if err != nil || idx < 0 {
			t.Errorf("sheet %q missing from new workbook", sheet)
		}
	}
}

func TestWorkbookAppendAndReadAll(t *testing.T) {
	s := newTestWorkbookStore(t)
	ctx := context.Background()

	recs := []*Record{
		{
			UserID:       "u1",
			DisplayName:  "Alice",
			Platform:     PlatformTwitter,
			Handle:       "alice",
			URL:          "https://twitter.com/alice/status/1",
			SubmittedAt:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
			ReviewStatus: StatusPending,
		},
		{
			UserID:       "u2",
			DisplayName:  "Bob",
			Platform:     PlatformYouTube,
			URL:          "https://youtu.be/abc",
			SubmittedAt:  time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC),
			Score:        5,
			ReviewStatus: StatusApproved,
		},
	}
	for _, rec := range recs {
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	if got[0].UserID != "u1" || got[0].Handle != "alice" {
		t.Errorf("row 1 = %q/%q, want u1/alice", got[0].UserID, got[0].Handle)
	}
	if got[0].Platform != PlatformTwitter {
		t.Errorf("row 1 platform = %q, want twitter", got[0].Platform)
	}
	if !got[0].SubmittedAt.Equal(recs[0].SubmittedAt) {
		t.Errorf("row 1 SubmittedAt = %v, want %v", got[0].SubmittedAt, recs[0].SubmittedAt)
	}

	if got[1].Platform != PlatformYouTube || got[1].Handle != "" {
		t.Errorf("row 2 platform/handle = %q/%q, want youtube with empty handle", got[1].Platform, got[1].Handle)
	}
	if got[1].Score != 5 || got[1].ReviewStatus != StatusApproved {
		t.Errorf("row 2 score/status = %d/%q, want 5/Approved", got[1].Score, got[1].ReviewStatus)
	}
}

func TestWorkbookToleratesReviewerEdits(t *testing.T) {
	s := newTestWorkbookStore(t)
	ctx := context.Background()

	rec := &Record{
		UserID:       "u1",
		DisplayName:  "Alice",
		Platform:     PlatformTwitter,
		Handle:       "alice",
		URL:          "https://twitter.com/alice/status/1",
		SubmittedAt:  time.Now().UTC().Truncate(time.Second),
		ReviewStatus: StatusPending,
	}
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Simulate a reviewer editing score and status by hand, plus a
	// garbage score cell on a second hand-added row.
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	if err := f.SetCellValue(detailsSheet, "H2", 15); err != nil {
		t.Fatalf("edit score: %v", err)
	}
	if err := f.SetCellValue(detailsSheet, "I2", "Approved"); err != nil {
		t.Fatalf("edit status: %v", err)
	}
	row := []interface{}{"u2", "Bob", "twitter", "bob", "", "https://x.com/bob/status/2", "not-a-date", "oops", ""}
	if err := f.SetSheetRow(detailsSheet, "A3", &row); err != nil {
		t.Fatalf("add hand row: %v", err)
	}
	if err := f.Save(); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	f.Close()

	got, err := s.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Score != 15 || got[0].ReviewStatus != StatusApproved {
		t.Errorf("edited row score/status = %d/%q, want 15/Approved", got[0].Score, got[0].ReviewStatus)
	}
	if got[1].Score != 0 {
		t.Errorf("garbage score parsed as %d, want 0", got[1].Score)
	}
	if got[1].ReviewStatus != StatusPending {
		t.Errorf("blank status = %q, want Pending default", got[1].ReviewStatus)
	}
}

func TestWorkbookWriteLeaderboard(t *testing.T) {
	s := newTestWorkbookStore(t)
	ctx := context.Background()

	snapshot := []SnapshotRow{
		{Rank: 1, UserID: "u1", DisplayName: "Alice", Handle: "alice", Score: 50},
		{Rank: 2, UserID: "u2", DisplayName: "Bob", Score: 25},
	}
	if err := s.WriteLeaderboard(ctx, snapshot); err != nil {
		t.Fatalf("WriteLeaderboard failed: %v", err)
	}

	// Rewriting with fewer rows must not leave stale entries behind.
	if err := s.WriteLeaderboard(ctx, snapshot[:1]); err != nil {
		t.Fatalf("second WriteLeaderboard failed: %v", err)
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(leaderboardSheet)
	if err != nil {
		t.Fatalf("read leaderboard sheet: %v", err)
	}
	if len(rows) != 2 { // header + one entry
		t.Fatalf("leaderboard sheet has %d rows, want 2", len(rows))
	}
	if rows[1][1] != "u1" {
		t.Errorf("leaderboard row user = %q, want u1", rows[1][1])
	}
}

func TestWorkbookReopenExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.xlsx")

	s1, err := NewWorkbookStore(path)
	if err != nil {
		t.Fatalf("NewWorkbookStore failed: %v", err)
	}
	rec := &Record{
		UserID: "u1", DisplayName: "Alice", Platform: PlatformTwitter,
		URL: "https://twitter.com/a/status/1", SubmittedAt: time.Now(),
		ReviewStatus: StatusPending,
	}
	if err := s1.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	s2, err := NewWorkbookStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	recs, err := s2.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll after reopen failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("got %d records after reopen, want 1", len(recs))
	}
}
