package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/veldhuis/gatekeeper/pkg/entities"
	"github.com/veldhuis/gatekeeper/pkg/logging"
	"github.com/veldhuis/gatekeeper/pkg/messages"
	"github.com/veldhuis/gatekeeper/pkg/request"
)

// commandController is the handler for slash commands. It validates the
// interaction and returns the processor to run.
type commandController func(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error)

// commandProcessor is the processor for slash commands and buttons.
type commandProcessor func(a IApp, i *discordgo.InteractionCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					a.Log().Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler routes interactions to the registered slash command
// controllers and button processors.
func interactionHandler(a IApp, controllers map[string]commandController, buttons map[string]commandProcessor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		// All interactions the bot handles originate inside guilds.
		if i.Member == nil || i.Member.User == nil {
			return
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			TotalInteractions.WithLabelValues("command").Inc()
			handleSlashCommand(a, i, controllers)
		case discordgo.InteractionMessageComponent:
			TotalInteractions.WithLabelValues("button").Inc()
			handleButton(a, i, buttons)
		}
	}
}

func handleSlashCommand(a IApp, i *discordgo.InteractionCreate, controllers map[string]commandController) {
	name := i.ApplicationCommandData().Name
	a.Log().Debug("Handling interaction " + name)

	t := time.Now().UTC()
	defer func() {
		DiscordCommandDuration.WithLabelValues(name).Observe(time.Since(t).Seconds())
	}()

	controller, ok := controllers[name]
	if !ok {
		a.Log().Error(fmt.Sprintf("No controller found for command %s", name))
		respondInteractionError(a, i, nil)
		return
	}

	processor, err := controller(a, i)
	if err != nil {
		a.Log().Error(fmt.Sprintf("Error getting processor for command %s", name),
			slog.String(logging.KeyError, err.Error()))
		respondInteractionError(a, i, err)
		return
	} else if processor == nil {
		// The controller handled the interaction itself.
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing command %s", name),
			slog.String(logging.KeyError, err.Error()))
		respondInteractionError(a, i, err)
	}
}

func handleButton(a IApp, i *discordgo.InteractionCreate, buttons map[string]commandProcessor) {
	id := i.MessageComponentData().CustomID
	a.Log().Debug("Handling button " + id)

	processor, ok := buttons[id]
	if !ok {
		a.Log().Error(fmt.Sprintf("No processor found for button %s", id))
		respondInteractionError(a, i, nil)
		return
	}

	if err := processor(a, i); err != nil {
		a.Log().Error(fmt.Sprintf("Error processing button %s", id),
			slog.String(logging.KeyError, err.Error()))
		respondInteractionError(a, i, err)
	}
}

// respondInteractionError replies to a failed interaction. Errors that carry
// a user message get that message; anything else gets the generic error.
func respondInteractionError(a IApp, i *discordgo.InteractionCreate, err error) {
	msg, ok := userMessageFor(err)
	if !ok {
		msg = messages.ErrUserErrorProcessing
	}
	if err := respondEphemeral(a, i, msg); err != nil {
		a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
	}
}

// userMessageFor maps an error to the message shown to the interacting user.
func userMessageFor(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var userErr UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage(), true
	}

	switch {
	case errors.Is(err, entities.ErrNotATicket):
		return messages.ErrNotVerificationChannel, true
	case errors.Is(err, entities.ErrUnresolvableRequester):
		return messages.ErrUnresolvableRequester, true
	}
	return "", false
}
