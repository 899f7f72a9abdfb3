package common

import (
	"log/slog"
	"strings"

	"github.com/pterm/pterm"
)

func NewLogger(level string) *slog.Logger {
	ptermLevel := pterm.LogLevelInfo

	switch strings.ToLower(level) {
	case "trace":
		ptermLevel = pterm.LogLevelTrace
	case "debug":
		ptermLevel = pterm.LogLevelDebug
	case "warn", "warning":
		ptermLevel = pterm.LogLevelWarn
	case "error":
		ptermLevel = pterm.LogLevelError
	}

	handler := pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(ptermLevel))

	return slog.New(handler)
}
