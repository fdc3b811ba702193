// Package notify carries transient, human-readable status messages from the
// core to whatever surface the player is looking at.
package notify

import (
	"log/slog"
	"time"
)

// Level classifies a notification.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

// Default display durations.
const (
	Short = 3 * time.Second
	Long  = 5 * time.Second
)

// Notifier receives status messages.
type Notifier interface {
	Notify(text string, level Level, d time.Duration)
}

// Func adapts a plain function to a Notifier.
type Func func(text string, level Level, d time.Duration)

func (f Func) Notify(text string, level Level, d time.Duration) { f(text, level, d) }

// Log writes notifications to the default slog logger.
var Log Notifier = Func(func(text string, level Level, _ time.Duration) {
	switch level {
	case Error:
		slog.Warn("notify", "text", text)
	default:
		slog.Info("notify", "level", string(level), "text", text)
	}
})
