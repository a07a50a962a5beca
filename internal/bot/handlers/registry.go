package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its pattern and middleware.
// It encapsulates all information needed to register and document a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	Description string
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// It configures each command with appropriate handlers and middleware.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	private := []tgbot.Middleware{PrivateOnly(deps)}
	privateAdmin := []tgbot.Middleware{PrivateOnly(deps), AdminOnly(deps)}

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  private,
		Description: "Show the command overview",
	}
	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  private,
		Description: "Show the command overview",
	}
	handlers["/list"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "list",
		Handler:     NewListHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  private,
		Description: "List chats enrolled for digests",
	}

	handlers["/subscribe"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "subscribe",
		Handler:     NewSubscribeHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  privateAdmin,
		Description: "Enroll a chat: /subscribe <chat_id>",
	}
	handlers["/unsubscribe"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "unsubscribe",
		Handler:     NewUnsubscribeHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  privateAdmin,
		Description: "Disable a chat: /unsubscribe <chat_id>",
	}
	handlers["/digest_hour"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "digest_hour",
		Handler:     NewDigestHourHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  privateAdmin,
		Description: "Set delivery hour: /digest_hour <chat_id> <0-23>",
	}
	handlers["/digest_now"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "digest_now",
		Handler:     NewDigestNowHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  privateAdmin,
		Description: "Build a 24h digest now: /digest_now <chat_id>",
	}
	handlers["/auto_on"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "auto_on",
		Handler:     NewAutoDigestHandler(deps, true),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  privateAdmin,
		Description: "Enable scheduled digests",
	}
	handlers["/auto_off"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "auto_off",
		Handler:     NewAutoDigestHandler(deps, false),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  privateAdmin,
		Description: "Disable scheduled digests",
	}

	return handlers
}
