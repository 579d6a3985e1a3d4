package logging

import (
	"log/slog"
	"os"
)

const (
	// KeyError is the attribute key for error values.
	KeyError = "err"

	// KeyDal is the attribute key for data access layer names.
	KeyDal = "dal"

	// KeyAppName is the attribute key for the application name.
	KeyAppName = "app"
)

// Name is the name of the application that the logger belongs to.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the application name attached to every record.
	name Name
}

// NewConfig creates a new logging configuration.
func NewConfig(name Name) *Config {
	return &Config{
		name: name,
	}
}

// CommonLogger creates the logger shared by the whole application. The logger is
// also installed as the slog default so that packages without an injected logger
// still log consistently.
func CommonLogger(c *Config) (*slog.Logger, error) {
	l := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	l = l.With(slog.String(KeyAppName, string(c.name)))

	slog.SetDefault(l)
	return l, nil
}
