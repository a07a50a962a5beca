package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewDigestHourHandler returns a handler for the /digest_hour command.
func NewDigestHourHandler(deps HandlerDeps) bot.HandlerFunc {
	return digestHourHandler{deps}.Handle
}

// digestHourHandler sets a chat's preferred local delivery hour.
type digestHourHandler struct {
	deps HandlerDeps
}

func (h digestHourHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "digest_hour")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Digest hour handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	replyTo := update.Message.Chat.ID

	fields := strings.Fields(update.Message.Text)
	if len(fields) != 3 {
		reply(ctx, b, log, replyTo, "Usage: /digest_hour <chat_id> <0-23>")
		return
	}

	chatID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || chatID == 0 {
		reply(ctx, b, log, replyTo, "Usage: /digest_hour <chat_id> <0-23>")
		return
	}
	hour, err := strconv.Atoi(fields[2])
	if err != nil || hour < 0 || hour > 23 {
		reply(ctx, b, log, replyTo, "Usage: /digest_hour <chat_id> <0-23>")
		return
	}

	if err := h.deps.Store.SetSubscriptionHour(ctx, chatID, hour); err != nil {
		log.ErrorContext(ctx, "Failed to set digest hour", "chat_id", chatID, "hour", hour, "error", err)
		reply(ctx, b, log, replyTo, fmt.Sprintf("Could not set the hour for chat %d: is it enrolled?", chatID))
		return
	}

	log.InfoContext(ctx, "Digest hour updated", "chat_id", chatID, "hour", hour)
	reply(ctx, b, log, replyTo, fmt.Sprintf("🕘 Chat %d digest moved to %02d:00.", chatID, hour))
}
