// Package bot maps Telegram commands onto the submission pipeline and
// formats replies. It knows nothing about the transport; main wires in
// a sender backed by the Telegram API.
package bot

import (
	"context"
	"fmt"
	"strings"

	"competition-bot/intake"
	"competition-bot/ledger"
	"competition-bot/stats"
)

// MessageSender delivers a reply to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Submitter runs the intake pipeline for one message.
type Submitter interface {
	Submit(ctx context.Context, userID, displayName, text string) intake.Result
}

// StatsProvider answers per-user stats queries.
type StatsProvider interface {
	StatsFor(ctx context.Context, userID string) (*stats.UserStats, error)
}

// Handler handles bot commands and plain-text link messages.
type Handler struct {
	sender    MessageSender
	submitter Submitter
	stats     StatsProvider
}

// NewHandler creates a command handler.
func NewHandler(sender MessageSender, submitter Submitter, statsProvider StatsProvider) *Handler {
	return &Handler{
		sender:    sender,
		submitter: submitter,
		stats:     statsProvider,
	}
}

// HandleStart handles the /start command.
func (h *Handler) HandleStart(ctx context.Context, chatID int64) error {
	msg := "Welcome to the Competition Recorder! 🎉\n\n" +
		"Share your Twitter or YouTube posts with me to participate.\n\n" +
		"Supported platforms:\n" +
		"• Twitter/X posts\n" +
		"• YouTube videos\n\n" +
		"Just send me the URL directly or use /submit!"

	return h.sender.SendMessage(ctx, chatID, msg)
}

// HandleHelp handles the /help command.
func (h *Handler) HandleHelp(ctx context.Context, chatID int64) error {
	msg := "Competition Bot Commands:\n\n" +
		"/submit [url] - Submit a Twitter or YouTube post\n" +
		"/mystats - View your statistics\n" +
		"/help - Show this help message\n\n" +
		"You can also send URLs directly without using commands!"

	return h.sender.SendMessage(ctx, chatID, msg)
}

// HandleSubmit handles the /submit command. Unlike plain messages, a
// /submit without a recognizable URL gets a usage reply.
func (h *Handler) HandleSubmit(ctx context.Context, chatID int64, userID, displayName, text string) error {
	res := h.submitter.Submit(ctx, userID, displayName, text)
	if res.Outcome == intake.NoURLFound {
		msg := "Please provide a valid URL:\n" +
			"• Twitter/X: https://twitter.com/username/status/...\n" +
			"• YouTube: https://youtube.com/watch?v=..."
		return h.sender.SendMessage(ctx, chatID, msg)
	}

	return h.sender.SendMessage(ctx, chatID, FormatOutcome(res))
}

// HandleMessage handles a plain text message. Messages without a
// recognizable URL are silently ignored.
func (h *Handler) HandleMessage(ctx context.Context, chatID int64, userID, displayName, text string) error {
	res := h.submitter.Submit(ctx, userID, displayName, text)
	if res.Outcome == intake.NoURLFound {
		return nil
	}

	return h.sender.SendMessage(ctx, chatID, FormatOutcome(res))
}

// HandleMyStats handles the /mystats command.
func (h *Handler) HandleMyStats(ctx context.Context, chatID int64, userID string) error {
	st, err := h.stats.StatsFor(ctx, userID)
	if err != nil {
		sendErr := h.sender.SendMessage(ctx, chatID,
			"❌ Sorry, there was an issue fetching your stats. Please try again later.")
		if sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("fetch stats: %w", err)
	}

	return h.sender.SendMessage(ctx, chatID, FormatStats(st))
}

// FormatOutcome turns an intake result into a user-facing reply.
func FormatOutcome(res intake.Result) string {
	switch res.Outcome {
	case intake.Recorded:
		emoji, platform := "🐦", "Twitter"
		if res.Record != nil && res.Record.Platform == ledger.PlatformYouTube {
			emoji, platform = "📺", "YouTube"
		}
		return fmt.Sprintf("%s Your %s submission has been recorded! Our team will review it soon.", emoji, platform)
	case intake.DuplicateRejected:
		return "⚠️ You already submitted this link. Each post counts once!"
	case intake.StoreFailure:
		return "❌ Sorry, there was an issue recording your submission. Please try again later."
	default:
		return ""
	}
}

// FormatStats renders the /mystats reply.
func FormatStats(st *stats.UserStats) string {
	if st.TotalSubmissions == 0 {
		return "You have no submissions yet. Send me a Twitter or YouTube link to get started!"
	}

	var sb strings.Builder
	sb.WriteString("📊 Your Stats:\n\n")
	sb.WriteString(fmt.Sprintf("🎯 Total Score: %d\n", st.TotalScore))
	sb.WriteString(fmt.Sprintf("📝 Total Submissions: %d\n", st.TotalSubmissions))
	sb.WriteString(fmt.Sprintf("🐦 Twitter Posts: %d\n", st.TwitterSubmissions))
	sb.WriteString(fmt.Sprintf("📺 YouTube Videos: %d\n", st.YouTubeSubmissions))
	sb.WriteString(fmt.Sprintf("⏰ Last Submission: %s", st.LastSubmission.Format("2006-01-02 15:04:05")))

	if st.Ranked {
		sb.WriteString(fmt.Sprintf("\n🏆 Rank: %d of %d", st.Rank, st.TotalRanked))
	}

	return sb.String()
}
