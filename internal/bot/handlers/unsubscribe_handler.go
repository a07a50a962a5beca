package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewUnsubscribeHandler returns a handler for the /unsubscribe command.
func NewUnsubscribeHandler(deps HandlerDeps) bot.HandlerFunc {
	return unsubscribeHandler{deps}.Handle
}

// unsubscribeHandler disables digests for a chat. The subscription row and
// the chat's captured messages are kept.
type unsubscribeHandler struct {
	deps HandlerDeps
}

func (h unsubscribeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "unsubscribe")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Unsubscribe handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	replyTo := update.Message.Chat.ID

	chatID, ok := parseChatIDArg(update.Message.Text)
	if !ok {
		reply(ctx, b, log, replyTo, "Usage: /unsubscribe <chat_id>")
		return
	}

	if err := h.deps.Store.SetSubscriptionEnabled(ctx, chatID, false); err != nil {
		log.ErrorContext(ctx, "Failed to disable subscription", "chat_id", chatID, "error", err)
		reply(ctx, b, log, replyTo, fmt.Sprintf("Could not disable chat %d: is it enrolled?", chatID))
		return
	}

	log.InfoContext(ctx, "Chat unsubscribed", "chat_id", chatID)
	reply(ctx, b, log, replyTo, fmt.Sprintf("⏸️ Chat %d disabled.", chatID))
}
