package stats

import "sort"

// Entry is one leaderboard row: a user aggregate plus its 1-based rank.
type Entry struct {
	UserAggregate
	Rank int
}

// Rank orders aggregates into a leaderboard. Only users with at least
// one submission participate. Ordering is deterministic:
// approved score descending, then earliest last submission first,
// then user ID. Equal scores get consecutive ranks, not shared ones.
func Rank(aggs map[string]*UserAggregate) []Entry {
	entries := make([]Entry, 0, len(aggs))
	for _, agg := range aggs {
		if agg.SubmissionCount == 0 {
			continue
		}
		entries = append(entries, Entry{UserAggregate: *agg})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ApprovedScore != b.ApprovedScore {
			return a.ApprovedScore > b.ApprovedScore
		}
		if !a.LastSubmittedAt.Equal(b.LastSubmittedAt) {
			return a.LastSubmittedAt.Before(b.LastSubmittedAt)
		}
		return a.UserID < b.UserID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}
