// Package telemetry sets up structured logging and tracing for the ballot
// service.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Log formats accepted by NewLogger.
const (
	LogFormatTerminal = "terminal"
	LogFormatJSON     = "json"
	LogFormatLogfmt   = "logfmt"
)

// NewLogger builds a logger writing to w in the given format at the given
// minimum level (trace, debug, info, warn, error, crit).
func NewLogger(w io.Writer, format, level string) (log.Logger, error) {
	lvl, err := log.LvlFromString(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", LogFormatTerminal:
		handler = log.NewTerminalHandlerWithLevel(w, lvl, useColor(w))
	case LogFormatJSON:
		handler = log.JSONHandlerWithLevel(w, lvl)
	case LogFormatLogfmt:
		handler = log.LogfmtHandlerWithLevel(w, lvl)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return log.NewLogger(handler), nil
}

// SetupLogging installs the logger for format and level as the root logger
// and returns it.
func SetupLogging(format, level string) (log.Logger, error) {
	logger, err := NewLogger(os.Stderr, format, level)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	return logger, nil
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) && os.Getenv("TERM") != "dumb"
}
