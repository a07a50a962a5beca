package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ostapenko/digestbot/internal/database"
)

// NewSubscribeHandler returns a handler for the /subscribe command.
func NewSubscribeHandler(deps HandlerDeps) bot.HandlerFunc {
	return subscribeHandler{deps}.Handle
}

// subscribeHandler enrolls a chat for message capture and digests.
type subscribeHandler struct {
	deps HandlerDeps
}

func (h subscribeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "subscribe")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Subscribe handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	replyTo := update.Message.Chat.ID

	chatID, ok := parseChatIDArg(update.Message.Text)
	if !ok {
		reply(ctx, b, log, replyTo, "Usage: /subscribe <chat_id>")
		return
	}

	sub, err := h.deps.Store.GetSubscription(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up subscription", "chat_id", chatID, "error", err)
		reply(ctx, b, log, replyTo, "An error occurred. Please try again later.")
		return
	}

	if sub == nil {
		sub = &database.ChatSubscription{
			ChatID:     chatID,
			Title:      strconv.FormatInt(chatID, 10),
			DigestHour: h.deps.Config.Digest.DefaultHour,
			Timezone:   h.deps.Config.Digest.DefaultTimezone,
		}
	}
	sub.Enabled = true

	if err := h.deps.Store.UpsertSubscription(ctx, sub); err != nil {
		log.ErrorContext(ctx, "Failed to upsert subscription", "chat_id", chatID, "error", err)
		reply(ctx, b, log, replyTo, "An error occurred. Please try again later.")
		return
	}

	log.InfoContext(ctx, "Chat subscribed", "chat_id", chatID, "digest_hour", sub.DigestHour)
	reply(ctx, b, log, replyTo, fmt.Sprintf("✅ Chat %d enrolled. Digest at %02d:00 (%s).", chatID, sub.DigestHour, sub.Timezone))
}

// parseChatIDArg extracts the single chat-id argument of a command like
// "/subscribe -1001234567890".
func parseChatIDArg(text string) (int64, bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return 0, false
	}
	chatID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || chatID == 0 {
		return 0, false
	}
	return chatID, true
}
