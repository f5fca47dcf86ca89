package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"competition-bot/bot"
	"competition-bot/config"
	"competition-bot/intake"
	"competition-bot/ledger"
	"competition-bot/scheduler"
	"competition-bot/stats"
	"competition-bot/web"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("starting competition bot", "config", configPath, "store", cfg.StoreBackend)

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	tgBot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		slog.Error("failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}
	slog.Info("telegram bot initialized", "username", tgBot.Self.UserName)

	intakeSvc := intake.NewService(store, intake.WithFailOpen(cfg.DedupFailOpen))
	statsSvc := stats.NewService(store)
	handler := bot.NewHandler(&telegramSender{api: tgBot}, intakeSvc, statsSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		slog.Error("failed to initialize scheduler", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}
	if err := sched.ScheduleDaily("leaderboard-snapshot", cfg.SnapshotTime, func() {
		writeSnapshot(context.Background(), statsSvc, store)
	}); err != nil {
		slog.Error("failed to schedule snapshot job", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()
	slog.Info("leaderboard snapshot scheduled", "time", cfg.SnapshotTime, "timezone", cfg.Timezone)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: web.NewServer(statsSvc).Router(),
	}
	go func() {
		slog.Info("dashboard API listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			cancel()
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting bot polling")
	runBot(ctx, tgBot, handler)
	slog.Info("bot stopped")
}

func openStore(cfg *config.Config) (ledger.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendWorkbook:
		return ledger.NewWorkbookStore(cfg.WorkbookPath)
	default:
		return ledger.NewSQLiteStore(cfg.DBPath)
	}
}

func runBot(ctx context.Context, api *tgbotapi.BotAPI, handler *bot.Handler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			handleMessage(ctx, handler, update.Message)
		}
	}
}

func handleMessage(ctx context.Context, handler *bot.Handler, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := strconv.FormatInt(msg.From.ID, 10)
	displayName := senderDisplayName(msg.From)

	slog.Info("received message", "chat_id", chatID, "user_id", userID)

	var err error
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		err = handler.HandleStart(ctx, chatID)
	case msg.IsCommand() && msg.Command() == "help":
		err = handler.HandleHelp(ctx, chatID)
	case msg.IsCommand() && msg.Command() == "submit":
		err = handler.HandleSubmit(ctx, chatID, userID, displayName, msg.CommandArguments())
	case msg.IsCommand() && msg.Command() == "mystats":
		err = handler.HandleMyStats(ctx, chatID, userID)
	case msg.IsCommand():
		// Unknown commands are ignored, matching plain-text behavior.
	default:
		err = handler.HandleMessage(ctx, chatID, userID, displayName, msg.Text)
	}

	if err != nil {
		slog.Warn("message handling failed", "chat_id", chatID, "error", err)
	}
}

// telegramSender adapts the Telegram API to bot.MessageSender.
type telegramSender struct {
	api *tgbotapi.BotAPI
}

func (t *telegramSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func senderDisplayName(from *tgbotapi.User) string {
	if from.UserName != "" {
		return from.UserName
	}
	return strings.TrimSpace(from.FirstName + " " + from.LastName)
}

// writeSnapshot recomputes the full leaderboard and persists it through
// the store's snapshot writer, if the backend supports one.
func writeSnapshot(ctx context.Context, statsSvc *stats.Service, store ledger.Store) {
	writer, ok := store.(ledger.SnapshotWriter)
	if !ok {
		return
	}

	board, err := statsSvc.Leaderboard(ctx, 0)
	if err != nil {
		slog.Error("snapshot: leaderboard query failed", "error", err)
		return
	}

	rows := make([]ledger.SnapshotRow, 0, len(board))
	for _, e := range board {
		rows = append(rows, ledger.SnapshotRow{
			Rank:        e.Rank,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			Handle:      e.Handle,
			Score:       e.ApprovedScore,
		})
	}

	if err := writer.WriteLeaderboard(ctx, rows); err != nil {
		slog.Error("snapshot: write failed", "error", err)
		return
	}
	slog.Info("leaderboard snapshot written", "entries", len(rows))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
