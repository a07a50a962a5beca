package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ostapenko/digestbot/internal/bot/tasks"
)

// NewAutoDigestHandler returns a handler that toggles the global scheduled
// digest flag. The scheduler keeps ticking either way; the sweep checks the
// flag, so the toggle takes effect on the next tick without rescheduling.
func NewAutoDigestHandler(deps HandlerDeps, enable bool) bot.HandlerFunc {
	return autoDigestHandler{deps: deps, enable: enable}.Handle
}

type autoDigestHandler struct {
	deps   HandlerDeps
	enable bool
}

func (h autoDigestHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "auto_digest")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Auto digest handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	replyTo := update.Message.Chat.ID

	value := "off"
	confirmation := "🛑 Scheduled digests disabled."
	if h.enable {
		value = "on"
		confirmation = "✅ Scheduled digests enabled."
	}

	if err := h.deps.Store.SetSetting(ctx, tasks.AutoDigestSettingKey, value); err != nil {
		log.ErrorContext(ctx, "Failed to toggle auto digest", "value", value, "error", err)
		reply(ctx, b, log, replyTo, "An error occurred. Please try again later.")
		return
	}

	log.InfoContext(ctx, "Auto digest toggled", "value", value)
	reply(ctx, b, log, replyTo, confirmation)
}
