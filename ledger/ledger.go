package ledger

import (
	"context"
	"errors"
	"time"
)

// Platform identifies where a submission was posted.
type Platform string

const (
	PlatformTwitter Platform = "twitter"
	PlatformYouTube Platform = "youtube"
)

// ReviewStatus is set by the review team after a submission is recorded.
// New submissions always start as Pending.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "Pending"
	StatusApproved ReviewStatus = "Approved"
	StatusRejected ReviewStatus = "Rejected"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrDuplicate is returned by Append when the store itself enforces
	// uniqueness on (user, url) and the pair already exists.
	ErrDuplicate = errors.New("duplicate submission")
)

// Record is one accepted submission. Rows are append-only; only Score
// and ReviewStatus change afterwards, edited out-of-band by reviewers.
type Record struct {
	ID           string
	UserID       string
	DisplayName  string
	Platform     Platform
	Handle       string
	URL          string
	SubmittedAt  time.Time
	Score        int
	ReviewStatus ReviewStatus
}

// Store is the append-only submission ledger. There is no server-side
// filtering: callers read everything and aggregate in memory.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	ReadAll(ctx context.Context) ([]Record, error)
	Close() error
}

// SnapshotRow is one line of a persisted leaderboard snapshot.
type SnapshotRow struct {
	Rank        int
	UserID      string
	DisplayName string
	Handle      string
	Score       int
}

// SnapshotWriter is implemented by stores that can persist a
// precomputed leaderboard alongside the submission rows.
type SnapshotWriter interface {
	WriteLeaderboard(ctx context.Context, rows []SnapshotRow) error
}
