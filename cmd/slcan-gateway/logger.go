package main

import (
	"log/slog"
	"os"

	"github.com/canlink/slcan-gateway/internal/logging"
)

func setupLogger(format, level string) *slog.Logger {
	l := logging.New(format, logging.ParseLevel(level), os.Stderr).With("app", "slcan-gateway")
	logging.Set(l)
	return l
}
