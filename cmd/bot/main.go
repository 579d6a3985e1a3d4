package main

import (
	"log/slog"
	"os"

	"github.com/veldhuis/gatekeeper/pkg/logging"
)

func main() {
	a, err := InitializeApp()
	if err != nil {
		slog.Error("Error initializing app", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	parseConfig(a.Log(), os.Args[1:])

	if err := a.Run(); err != nil {
		a.Log().Error("Error running app", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}
}
