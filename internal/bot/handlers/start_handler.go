package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = `👋 I silently collect messages from your groups and send you digests here.

<b>Commands:</b>
• /list — chats enrolled for digests
• /subscribe &lt;chat_id&gt; — enroll a chat
• /unsubscribe &lt;chat_id&gt; — disable a chat
• /digest_hour &lt;chat_id&gt; &lt;0-23&gt; — set the delivery hour
• /digest_now &lt;chat_id&gt; — 24h digest right now
• /auto_on — enable scheduled digests
• /auto_off — disable scheduled digests

<i>Add the bot to a group as a member, find the group's chat_id, and manage everything from here.</i>`

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command", "chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      helpText,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}
