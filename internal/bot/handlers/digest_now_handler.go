package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ostapenko/digestbot/internal/config"
)

// digestWindow is the trailing period an on-demand digest covers.
const digestWindow = 24 * time.Hour

// NewDigestNowHandler returns a handler for the /digest_now command.
func NewDigestNowHandler(deps HandlerDeps) bot.HandlerFunc {
	return digestNowHandler{deps}.Handle
}

// digestNowHandler builds and delivers a digest immediately, bypassing the
// schedule and the enabled flag. The delivered watermark is left untouched:
// a manual digest never suppresses the scheduled one.
type digestNowHandler struct {
	deps HandlerDeps
}

func (h digestNowHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "digest_now")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Digest now handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	replyTo := update.Message.Chat.ID

	chatID, ok := parseChatIDArg(update.Message.Text)
	if !ok {
		reply(ctx, b, log, replyTo, "Usage: /digest_now <chat_id>")
		return
	}

	if !h.deps.Inflight.TryAcquire(chatID) {
		reply(ctx, b, log, replyTo, "A digest for this chat is already being built.")
		return
	}
	defer h.deps.Inflight.Release(chatID)

	title := strconv.FormatInt(chatID, 10)
	if sub, err := h.deps.Store.GetSubscription(ctx, chatID); err == nil && sub != nil && sub.Title != "" {
		title = sub.Title
	}

	since := time.Now().Add(-digestWindow).Unix()
	msgs, err := h.deps.Store.GetMessagesSince(ctx, chatID, since)
	if err != nil {
		log.ErrorContext(ctx, "Failed to query digest window", "chat_id", chatID, "error", err)
		reply(ctx, b, log, replyTo, "An error occurred. Please try again later.")
		return
	}

	var text string
	if h.deps.Config.Digest.Mode == config.ModeLLM {
		text = h.deps.Builder.BuildLLM(ctx, chatID, title, msgs)
	} else {
		text = h.deps.Builder.Build(chatID, title, msgs)
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    h.deps.Config.Telegram.AdminUserID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to deliver on-demand digest", "chat_id", chatID, "error", err)
		reply(ctx, b, log, replyTo, "An error occurred. Please try again later.")
		return
	}

	log.InfoContext(ctx, "On-demand digest delivered", "chat_id", chatID, "message_count", len(msgs))
	if replyTo != h.deps.Config.Telegram.AdminUserID {
		reply(ctx, b, log, replyTo, "📬 Digest sent to the admin chat.")
	}
}
