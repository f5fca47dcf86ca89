// Package intake runs the submission pipeline for one inbound message:
// classify the text, check for a duplicate, append to the ledger.
package intake

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"competition-bot/ledger"
	"competition-bot/links"
)

// Outcome is the terminal state of one intake attempt.
type Outcome int

const (
	// NoURLFound means the text carried no recognizable link.
	NoURLFound Outcome = iota
	// DuplicateRejected means this user already submitted this URL.
	DuplicateRejected
	// Recorded means one row was appended to the ledger.
	Recorded
	// StoreFailure means the ledger could not be read or written.
	StoreFailure
)

func (o Outcome) String() string {
	switch o {
	case NoURLFound:
		return "no_url_found"
	case DuplicateRejected:
		return "duplicate_rejected"
	case Recorded:
		return "recorded"
	case StoreFailure:
		return "store_failure"
	default:
		return "unknown"
	}
}

// Result describes what happened to a submission attempt.
type Result struct {
	Outcome Outcome
	Record  *ledger.Record // set when Outcome is Recorded
	Err     error          // set when Outcome is StoreFailure
}

// Service orchestrates classification, deduplication and the append.
type Service struct {
	store    ledger.Store
	failOpen bool
	now      func() time.Time

	// Check-then-append is not atomic against the store, so submissions
	// from the same user are serialized with a per-user lock.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithFailOpen controls the dedup gate's behavior when the ledger
// cannot be read: fail open treats the submission as new, fail closed
// aborts with StoreFailure.
func WithFailOpen(failOpen bool) Option {
	return func(s *Service) {
		s.failOpen = failOpen
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an intake service. The dedup gate fails open by
// default so a flaky store does not block legitimate submissions.
func NewService(store ledger.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		failOpen:  true,
		now:       time.Now,
		userLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit processes one inbound message end to end.
func (s *Service) Submit(ctx context.Context, userID, displayName, text string) Result {
	match := links.Classify(text)
	if match == nil {
		return Result{Outcome: NoURLFound}
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	dup, err := s.isDuplicate(ctx, userID, match.URL)
	if err != nil {
		if !s.failOpen {
			return Result{Outcome: StoreFailure, Err: err}
		}
		slog.Warn("dedup check failed, treating submission as new",
			"user_id", userID, "url", match.URL, "error", err)
	}
	if dup {
		return Result{Outcome: DuplicateRejected}
	}

	rec := &ledger.Record{
		UserID:       userID,
		DisplayName:  displayName,
		Platform:     match.Platform,
		Handle:       match.Handle,
		URL:          match.URL,
		SubmittedAt:  s.now(),
		Score:        0,
		ReviewStatus: ledger.StatusPending,
	}

	if err := s.store.Append(ctx, rec); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			return Result{Outcome: DuplicateRejected}
		}
		return Result{Outcome: StoreFailure, Err: err}
	}

	return Result{Outcome: Recorded, Record: rec}
}

// isDuplicate scans the ledger for an exact (user, url) match. URLs are
// compared byte for byte; no normalization is applied.
func (s *Service) isDuplicate(ctx context.Context, userID, url string) (bool, error) {
	records, err := s.store.ReadAll(ctx)
	if err != nil {
		return false, err
	}

	for _, rec := range records {
		if rec.UserID == userID && rec.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}
