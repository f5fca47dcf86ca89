// Package web serves the dashboard JSON API: the leaderboard, per-user
// stats and per-user submission history.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"competition-bot/ledger"
	"competition-bot/stats"
)

const defaultLeaderboardLimit = 50

// StatsService answers the queries the dashboard needs.
type StatsService interface {
	StatsFor(ctx context.Context, userID string) (*stats.UserStats, error)
	Leaderboard(ctx context.Context, limit int) ([]stats.Entry, error)
	Submissions(ctx context.Context, userID string) ([]ledger.Record, error)
}

// Server is the dashboard API.
type Server struct {
	stats StatsService
}

// NewServer creates a dashboard API server over the given query service.
func NewServer(statsService StatsService) *Server {
	return &Server{stats: statsService}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userId}/stats", s.handleUserStats).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{userId}/submissions", s.handleUserSubmissions).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return r
}

type leaderboardEntry struct {
	Rank            int       `json:"rank"`
	UserID          string    `json:"userId"`
	DisplayName     string    `json:"displayName"`
	Handle          string    `json:"handle,omitempty"`
	Score           int       `json:"score"`
	Submissions     int       `json:"submissions"`
	LastSubmittedAt time.Time `json:"lastSubmittedAt"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	board, err := s.stats.Leaderboard(r.Context(), limit)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}

	entries := make([]leaderboardEntry, 0, len(board))
	for _, e := range board {
		entries = append(entries, leaderboardEntry{
			Rank:            e.Rank,
			UserID:          e.UserID,
			DisplayName:     e.DisplayName,
			Handle:          e.Handle,
			Score:           e.ApprovedScore,
			Submissions:     e.SubmissionCount,
			LastSubmittedAt: e.LastSubmittedAt,
		})
	}

	respondJSON(w, http.StatusOK, entries)
}

type userStatsResponse struct {
	UserID             string     `json:"userId"`
	TotalScore         int        `json:"totalScore"`
	TotalSubmissions   int        `json:"totalSubmissions"`
	TwitterSubmissions int        `json:"twitterSubmissions"`
	YouTubeSubmissions int        `json:"youtubeSubmissions"`
	LastSubmission     *time.Time `json:"lastSubmission,omitempty"`
	Rank               int        `json:"rank,omitempty"`
	TotalRanked        int        `json:"totalRanked"`
	Ranked             bool       `json:"ranked"`
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	st, err := s.stats.StatsFor(r.Context(), userID)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}

	resp := userStatsResponse{
		UserID:             st.UserID,
		TotalScore:         st.TotalScore,
		TotalSubmissions:   st.TotalSubmissions,
		TwitterSubmissions: st.TwitterSubmissions,
		YouTubeSubmissions: st.YouTubeSubmissions,
		Rank:               st.Rank,
		TotalRanked:        st.TotalRanked,
		Ranked:             st.Ranked,
	}
	if !st.LastSubmission.IsZero() {
		t := st.LastSubmission
		resp.LastSubmission = &t
	}

	respondJSON(w, http.StatusOK, resp)
}

type submissionResponse struct {
	Platform    string    `json:"platform"`
	Handle      string    `json:"handle,omitempty"`
	URL         string    `json:"url"`
	SubmittedAt time.Time `json:"submittedAt"`
	Score       int       `json:"score"`
	Status      string    `json:"status"`
}

func (s *Server) handleUserSubmissions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	records, err := s.stats.Submissions(r.Context(), userID)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}

	subs := make([]submissionResponse, 0, len(records))
	for _, rec := range records {
		subs = append(subs, submissionResponse{
			Platform:    string(rec.Platform),
			Handle:      rec.Handle,
			URL:         rec.URL,
			SubmittedAt: rec.SubmittedAt,
			Score:       rec.Score,
			Status:      string(rec.ReviewStatus),
		})
	}

	respondJSON(w, http.StatusOK, subs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondQueryError maps store-read failures to 503 so clients can
// distinguish "try again later" from a legitimately empty result.
func (s *Server) respondQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, stats.ErrDataUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "data temporarily unavailable, try again later", err)
		return
	}
	respondError(w, http.StatusInternalServerError, "internal error", err)
}
