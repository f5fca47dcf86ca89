// Package stats derives per-user statistics and leaderboard rankings
// from the raw submission ledger. Everything is recomputed from a full
// ledger scan on each query; nothing is cached.
package stats

import (
	"time"

	"competition-bot/ledger"
)

// UserAggregate is the folded view of one user's submissions.
type UserAggregate struct {
	UserID          string
	DisplayName     string
	Handle          string
	TwitterCount    int
	YouTubeCount    int
	SubmissionCount int
	ApprovedScore   int
	LastSubmittedAt time.Time
}

// Aggregate folds the ledger into one aggregate per user. Users with
// no records are simply absent from the result.
//
// ApprovedScore only counts records the reviewers approved; pending
// and rejected rows still count toward SubmissionCount.
func Aggregate(records []ledger.Record) map[string]*UserAggregate {
	aggs := make(map[string]*UserAggregate)

	for _, rec := range records {
		agg, ok := aggs[rec.UserID]
		if !ok {
			agg = &UserAggregate{UserID: rec.UserID}
			aggs[rec.UserID] = agg
		}

		agg.SubmissionCount++
		switch rec.Platform {
		case ledger.PlatformTwitter:
			agg.TwitterCount++
		case ledger.PlatformYouTube:
			agg.YouTubeCount++
		}

		if rec.ReviewStatus == ledger.StatusApproved {
			agg.ApprovedScore += rec.Score
		}

		if rec.SubmittedAt.After(agg.LastSubmittedAt) {
			agg.LastSubmittedAt = rec.SubmittedAt
		}
		if rec.DisplayName != "" {
			agg.DisplayName = rec.DisplayName
		}
		if rec.Handle != "" {
			agg.Handle = rec.Handle
		}
	}

	return aggs
}
