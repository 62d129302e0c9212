package main

import (
	"log/slog"
	"os"

	"saas-backoffice/internal/app"
	"saas-backoffice/internal/logger"
)

func main() {
	slog.SetDefault(logger.New(os.Stdout, "info"))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
