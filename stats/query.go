package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"competition-bot/ledger"
)

// ErrDataUnavailable means the ledger could not be read. It is distinct
// from a user simply having no submissions, which is a valid empty
// result, not an error.
var ErrDataUnavailable = errors.New("submission data unavailable")

// RecordReader reads the full submission ledger.
type RecordReader interface {
	ReadAll(ctx context.Context) ([]ledger.Record, error)
}

// UserStats is the answer to "how is this user doing".
type UserStats struct {
	UserID             string
	TotalScore         int
	TotalSubmissions   int
	TwitterSubmissions int
	YouTubeSubmissions int
	LastSubmission     time.Time
	Rank               int
	TotalRanked        int
	Ranked             bool
}

// Service answers stats and leaderboard queries over the ledger.
type Service struct {
	records RecordReader
}

// NewService creates a query service reading from the given ledger.
func NewService(records RecordReader) *Service {
	return &Service{records: records}
}

// StatsFor returns stats for one user. A user with no submissions gets
// a zero-valued result with Ranked=false, not an error.
func (s *Service) StatsFor(ctx context.Context, userID string) (*UserStats, error) {
	records, err := s.records.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	board := Rank(Aggregate(records))

	st := &UserStats{UserID: userID, TotalRanked: len(board)}
	for _, entry := range board {
		if entry.UserID != userID {
			continue
		}
		st.TotalScore = entry.ApprovedScore
		st.TotalSubmissions = entry.SubmissionCount
		st.TwitterSubmissions = entry.TwitterCount
		st.YouTubeSubmissions = entry.YouTubeCount
		st.LastSubmission = entry.LastSubmittedAt
		st.Rank = entry.Rank
		st.Ranked = true
		break
	}

	return st, nil
}

// Leaderboard returns the ranked board, truncated to limit entries
// when limit is positive.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	records, err := s.records.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	board := Rank(Aggregate(records))
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

// Submissions returns one user's raw ledger rows, oldest first.
func (s *Service) Submissions(ctx context.Context, userID string) ([]ledger.Record, error) {
	records, err := s.records.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var out []ledger.Record
	for _, rec := range records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}
