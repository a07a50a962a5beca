package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/ostapenko/digestbot/internal/config"
	"github.com/ostapenko/digestbot/internal/database"
)

// AutoDigestSettingKey is the settings-table key gating the scheduled sweep.
// The sweep only runs while the stored value is "on".
const AutoDigestSettingKey = "auto_digest"

// Window is the trailing period a digest covers.
const Window = 24 * time.Hour

// newDigestSweepTask creates the scheduled sweep: on every tick it evaluates
// all enabled subscriptions against the scheduling policy and builds and
// delivers a digest for each due chat. Per-chat failures are logged and
// isolated; one chat can never abort the others.
func newDigestSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "digest_sweep")

	// Deliveries in one sweep are serialized and spaced out to respect
	// Telegram's throughput limits; builds still run in parallel.
	var sendMu sync.Mutex

	return func(ctx context.Context) error {
		mode, err := deps.Store.GetSetting(ctx, AutoDigestSettingKey)
		if err != nil {
			return fmt.Errorf("failed to read auto digest setting: %w", err)
		}
		if mode != "on" {
			log.DebugContext(ctx, "Auto digest disabled, skipping sweep")
			return nil
		}

		subs, err := deps.Store.ListEnabledSubscriptions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list enabled subscriptions: %w", err)
		}

		now := time.Now()
		var due []database.ChatSubscription
		for _, sub := range subs {
			if deps.Policy.Due(sub, now) {
				due = append(due, sub)
			}
		}
		if len(due) == 0 {
			log.DebugContext(ctx, "No chats due for digest", "enabled_count", len(subs))
			return nil
		}

		log.InfoContext(ctx, "Starting digest sweep", "due_count", len(due), "enabled_count", len(subs))

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(deps.Config.Scheduler.SweepConcurrency)

		for _, sub := range due {
			g.Go(func() error {
				sweepChat(gCtx, deps, log, sub, now, &sendMu)
				return nil
			})
		}

		_ = g.Wait()
		log.InfoContext(ctx, "Digest sweep finished", "due_count", len(due))
		return nil
	}
}

// sweepChat builds and delivers one chat's digest. All errors are handled
// here: logged, optionally surfaced to the admin as a notice, never returned.
func sweepChat(ctx context.Context, deps TaskDeps, log *slog.Logger, sub database.ChatSubscription, now time.Time, sendMu *sync.Mutex) {
	if !deps.Inflight.TryAcquire(sub.ChatID) {
		log.WarnContext(ctx, "Digest build already in flight, skipping chat", "chat_id", sub.ChatID)
		return
	}
	defer deps.Inflight.Release(sub.ChatID)

	buildCtx, cancel := context.WithTimeout(ctx, deps.Config.Scheduler.BuildTimeout)
	defer cancel()

	title := sub.Title
	if title == "" {
		title = fmt.Sprintf("%d", sub.ChatID)
	}

	since := now.Add(-Window).Unix()
	msgs, err := deps.Store.GetMessagesSince(buildCtx, sub.ChatID, since)
	if err != nil {
		log.ErrorContext(ctx, "Failed to query digest window", "chat_id", sub.ChatID, "error", err)
		deliver(ctx, deps, sendMu, fmt.Sprintf("⚠️ Digest for %s failed: storage error.", title))
		return
	}

	var text string
	if deps.Config.Digest.Mode == config.ModeLLM {
		text = deps.Builder.BuildLLM(buildCtx, sub.ChatID, title, msgs)
	} else {
		text = deps.Builder.Build(sub.ChatID, title, msgs)
	}

	if err := deliver(ctx, deps, sendMu, text); err != nil {
		log.ErrorContext(ctx, "Failed to deliver digest", "chat_id", sub.ChatID, "error", err)
		return
	}

	if err := deps.Store.SetLastDigestAt(ctx, sub.ChatID, now.Unix()); err != nil {
		log.ErrorContext(ctx, "Failed to persist delivered watermark", "chat_id", sub.ChatID, "error", err)
		return
	}

	log.InfoContext(ctx, "Digest delivered", "chat_id", sub.ChatID, "message_count", len(msgs))
}

func deliver(ctx context.Context, deps TaskDeps, sendMu *sync.Mutex, text string) error {
	sendMu.Lock()
	defer sendMu.Unlock()

	_, err := deps.Bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    deps.Config.Telegram.AdminUserID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to send digest message: %w", err)
	}

	time.Sleep(deps.Config.Scheduler.SendDelay)
	return nil
}
