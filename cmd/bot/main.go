// Package main contains the entrypoint for the digest bot application.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/ostapenko/digestbot/internal/bot"
	"github.com/ostapenko/digestbot/internal/bot/handlers"
	"github.com/ostapenko/digestbot/internal/bot/tasks"
	"github.com/ostapenko/digestbot/internal/config"
	"github.com/ostapenko/digestbot/internal/database"
	"github.com/ostapenko/digestbot/internal/digest"
	"github.com/ostapenko/digestbot/internal/gemini"
	"github.com/ostapenko/digestbot/internal/logger"
	"github.com/ostapenko/digestbot/internal/schedule"
	"github.com/ostapenko/digestbot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// summarizer, bot, scheduler), handles graceful shutdown, and returns an
// exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	// The summarizer is optional: without an API key the bot runs in
	// deterministic mode and the LLM path degrades to a notice.
	var summarizer digest.Summarizer
	if cfg.Gemini.APIKey != "" {
		summarizer, err = gemini.NewClient(ctx, cfg.Gemini, log)
		if err != nil {
			log.Error("Failed to initialize Gemini client", "error", err)
			return 1
		}
	} else {
		log.Info("No Gemini API key configured, summarization disabled")
	}

	builder := digest.NewBuilder(digest.Config{
		MinMessageLen:     cfg.Digest.MinMessageLength,
		PreviewsPerAuthor: cfg.Digest.PreviewsPerAuthor,
		PreviewWidth:      cfg.Digest.PreviewWidth,
		MaxItems:          cfg.Digest.MaxLLMItems,
	}, summarizer, log)
	policy := schedule.NewPolicy(cfg.Digest.DefaultTimezone, log)
	inflight := digest.NewInflight()

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Builder:  builder,
		Inflight: inflight,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewCaptureHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.RegisterBotCommands(ctx, tg, log, cmdHandlers); err != nil {
		// The menu is cosmetic; the bot works without it.
		log.Warn("Failed to register bot command menu", "error", err)
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Builder:  builder,
		Policy:   policy,
		Inflight: inflight,
		Bot:      tg,
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, cfg, db, store, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
