package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/veldhuis/gatekeeper/pkg/logging"
)

const (
	// AppName is the name of the application.
	AppName = "gatekeeper"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvSettingsFile is the environment variable for the settings file path.
	EnvSettingsFile = `SETTINGS_FILE`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// SettingsFile is the path of the settings file.
	SettingsFile string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string
)

// parseConfig reads the process configuration from the environment (with .env
// support) and the command line. The bot token may be passed as the first
// argument when the environment variable is not set.
func parseConfig(l *slog.Logger, args []string) {
	// A .env file is optional.
	if err := godotenv.Load(); err == nil {
		l.Debug("Loaded environment from .env file")
	}

	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	} else if len(args) > 0 && args[0] != "" {
		l.Debug("Found bot token in arguments")
		BotToken = args[0]
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envSettings := os.Getenv(EnvSettingsFile); envSettings != "" {
		l.Debug("Found settings file path in environment", slog.String("key", EnvSettingsFile))
		SettingsFile = envSettings
	} else {
		SettingsFile = "config.json"
		l.Info("No settings file provided in environment, defaulting to config.json", slog.String("key", EnvSettingsFile))
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"
		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	if BotToken == "" {
		l.Error("No bot token provided",
			slog.String(logging.KeyError, "set "+EnvBotToken+" or pass the token as the first argument"))
		os.Exit(1)
	}

	if ApplicationId == "" {
		l.Error("No application ID provided",
			slog.String(logging.KeyError, "set "+EnvApplicationId))
		os.Exit(1)
	}
}
