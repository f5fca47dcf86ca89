package ledger

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	detailsSheet     = "Details"
	leaderboardSheet = "Leaderboard"
)

// Column order in the Details sheet. The sheet is positional: reviewers
// edit Score and ReviewStatus in place, everything else is written once.
var detailsHeader = []interface{}{
	"UserID", "DisplayName", "Platform", "TwitterHandle", "YouTubeHandle",
	"PostURL", "Timestamp", "Score", "ReviewStatus",
}

var leaderboardHeader = []interface{}{
	"Rank", "UserID", "DisplayName", "Handle", "Score",
}

// WorkbookStore keeps the ledger in an XLSX workbook, preserving the
// spreadsheet-as-database layout the dashboard and reviewers expect.
// Every operation re-opens the file; there is no cache.
type WorkbookStore struct {
	path string
	mu   sync.Mutex
}

// NewWorkbookStore opens the workbook at path, creating it with the
// Details and Leaderboard sheets if it does not exist yet.
func NewWorkbookStore(path string) (*WorkbookStore, error) {
	s := &WorkbookStore{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.createWorkbook(); err != nil {
			return nil, fmt.Errorf("create workbook: %w", err)
		}
		return s, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(detailsSheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook %s has no %s sheet", path, detailsSheet)
	}

	return s, nil
}

// Close is a no-op; the workbook is opened per operation.
func (s *WorkbookStore) Close() error {
	return nil
}

func (s *WorkbookStore) createWorkbook() error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(detailsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(leaderboardSheet); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if err := f.SetSheetRow(detailsSheet, "A1", &detailsHeader); err != nil {
		return err
	}
	if err := f.SetSheetRow(leaderboardSheet, "A1", &leaderboardHeader); err != nil {
		return err
	}

	return f.SaveAs(s.path)
}

// Append writes one submission row at the bottom of the Details sheet.
func (s *WorkbookStore) Append(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(detailsSheet)
	if err != nil {
		return fmt.Errorf("read %s sheet: %w", detailsSheet, err)
	}

	twitterHandle, youtubeHandle := "", ""
	switch rec.Platform {
	case PlatformTwitter:
		twitterHandle = rec.Handle
	case PlatformYouTube:
		youtubeHandle = rec.Handle
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("locate append row: %w", err)
	}

	row := []interface{}{
		rec.UserID,
		rec.DisplayName,
		string(rec.Platform),
		twitterHandle,
		youtubeHandle,
		rec.URL,
		rec.SubmittedAt.UTC().Format(time.RFC3339),
		rec.Score,
		string(rec.ReviewStatus),
	}
	if err := f.SetSheetRow(detailsSheet, cell, &row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// ReadAll scans the full Details sheet. Malformed cells are tolerated
// the way the dashboard tolerates them: unparseable scores count as 0.
func (s *WorkbookStore) ReadAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(detailsSheet)
	if err != nil {
		return nil, fmt.Errorf("read %s sheet: %w", detailsSheet, err)
	}

	var recs []Record
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		rec, ok := parseDetailsRow(row)
		if !ok {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func parseDetailsRow(row []string) (Record, bool) {
	// GetRows trims trailing empty cells, so pad back to full width.
	for len(row) < len(detailsHeader) {
		row = append(row, "")
	}

	if row[0] == "" {
		return Record{}, false
	}

	rec := Record{
		UserID:       row[0],
		DisplayName:  row[1],
		Platform:     Platform(row[2]),
		URL:          row[5],
		ReviewStatus: ReviewStatus(row[8]),
	}

	switch rec.Platform {
	case PlatformYouTube:
		rec.Handle = row[4]
	default:
		rec.Handle = row[3]
	}

	if score, err := strconv.Atoi(row[7]); err == nil {
		rec.Score = score
	}
	if ts, err := time.Parse(time.RFC3339, row[6]); err == nil {
		rec.SubmittedAt = ts
	} else if ts, err := time.Parse("2006-01-02 15:04:05", row[6]); err == nil {
		rec.SubmittedAt = ts
	}
	if rec.ReviewStatus == "" {
		rec.ReviewStatus = StatusPending
	}

	return rec, true
}

// WriteLeaderboard rewrites the Leaderboard sheet with the given rows.
func (s *WorkbookStore) WriteLeaderboard(ctx context.Context, snapshot []SnapshotRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if err := f.DeleteSheet(leaderboardSheet); err != nil {
		return fmt.Errorf("clear %s sheet: %w", leaderboardSheet, err)
	}
	if _, err := f.NewSheet(leaderboardSheet); err != nil {
		return fmt.Errorf("recreate %s sheet: %w", leaderboardSheet, err)
	}
	if err := f.SetSheetRow(leaderboardSheet, "A1", &leaderboardHeader); err != nil {
		return fmt.Errorf("write %s header: %w", leaderboardSheet, err)
	}

	for i, row := range snapshot {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("locate snapshot row: %w", err)
		}
		values := []interface{}{row.Rank, row.UserID, row.DisplayName, row.Handle, row.Score}
		if err := f.SetSheetRow(leaderboardSheet, cell, &values); err != nil {
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
