package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewListHandler returns a handler for the /list command.
func NewListHandler(deps HandlerDeps) bot.HandlerFunc {
	return listHandler{deps}.Handle
}

// listHandler lists all chats currently enrolled for digests.
type listHandler struct {
	deps HandlerDeps
}

func (h listHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "list")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "List handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	subs, err := h.deps.Store.ListEnabledSubscriptions(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list enabled subscriptions", "error", err)
		reply(ctx, b, log, chatID, "An error occurred. Please try again later.")
		return
	}

	if len(subs) == 0 {
		reply(ctx, b, log, chatID, "No chats enrolled.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Enrolled chats:\n")
	for _, sub := range subs {
		title := sub.Title
		if title == "" {
			title = fmt.Sprintf("%d", sub.ChatID)
		}
		sb.WriteString(fmt.Sprintf("%s — <code>%d</code> (%02d:00 %s)\n", title, sub.ChatID, sub.DigestHour, sub.Timezone))
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send chat list", "error", err, "chat_id", chatID)
	}
}

// reply sends a plain-text response, logging delivery failures.
func reply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}
