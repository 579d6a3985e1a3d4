package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veldhuis/gatekeeper/pkg/dataaccess"
	"github.com/veldhuis/gatekeeper/pkg/logging"
	"github.com/veldhuis/gatekeeper/pkg/request"
)

const (
	// PathMetrics is the path for the metrics endpoint.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health endpoint.
	PathHealth = "/health"
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// SettingsDal returns the settings data access layer.
	SettingsDal() dataaccess.SettingsDal
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// settings is the settings data access layer.
	settings dataaccess.SettingsDal

	// registeredCommands are the command IDs created per guild, keyed by guild ID.
	// They are kept so that shutdown can remove exactly what was registered.
	registeredCommands map[string][]string
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
	}
}

func (a *App) Run() error {
	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.settings = dataaccess.NewSettingsDal(a.Logger, SettingsFile)

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	// Register slash commands. This requires the session to be open so that the
	// guild list is available.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Error("Error running monitoring server", slog.String(logging.KeyError, err.Error()))
		}
	}()
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(200, "", "", false)
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Member joined guild.
	a.s.AddHandler(memberJoinedHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash Controllers
		map[string]commandController{
			setupRolesCmd.Name:   setupRolesController,
			setupChannelCmd.Name: setupChannelController,
			setupMessageCmd.Name: setupMessageController,
			testWelcomeCmd.Name:  testWelcomeController,
			viewConfigCmd.Name:   viewConfigController,
			approveCmd.Name:      approveController,
			denyCmd.Name:         denyController,
		},
		// Button Controllers
		buttonControllers()))
	return nil
}

// slashCommands are the commands registered in every guild the bot is in.
var slashCommands = []*discordgo.ApplicationCommand{
	setupRolesCmd,
	setupChannelCmd,
	setupMessageCmd,
	testWelcomeCmd,
	viewConfigCmd,
	approveCmd,
	denyCmd,
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	a.registeredCommands = make(map[string][]string, len(guilds))

	// Register slash commands for each guild.
	for _, g := range guilds {
		for _, cmd := range slashCommands {
			created, err := a.Session().ApplicationCommandCreate(ApplicationId, g.ID, cmd)
			if err != nil {
				return fmt.Errorf("error creating %s command for guild %s: %w", cmd.Name, g.ID, err)
			}
			a.registeredCommands[g.ID] = append(a.registeredCommands[g.ID], created.ID)
		}
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	// Delete the slash commands that were registered on startup.
	for guildID, cmdIDs := range a.registeredCommands {
		for _, cmdID := range cmdIDs {
			if err := a.s.ApplicationCommandDelete(ApplicationId, guildID, cmdID); err != nil {
				return fmt.Errorf("error deleting command %s for guild %s: %w", cmdID, guildID, err)
			}
		}
	}
	return nil
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) SettingsDal() dataaccess.SettingsDal {
	return a.settings
}
