// Package status carries user-visible status lines (mode decisions, session
// state changes, placement results) to logs and connected pages.
package status

import (
	"context"
	"log/slog"
	"time"
)

// Level of a status message
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Message is one status line
type Message struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Text    string    `json:"text"`
	Session string    `json:"session,omitempty"`
	State   string    `json:"state,omitempty"`
}

// Reporter receives status messages. Implementations must be safe to call
// from any goroutine.
type Reporter interface {
	Report(msg Message)
}

// Func adapts a function to a Reporter
type Func func(Message)

// Report calls f
func (f Func) Report(msg Message) {
	f(msg)
}

// Nop drops every message
type Nop struct{}

// Report does nothing
func (Nop) Report(Message) {}

// Multi fans a message out to several reporters
type Multi []Reporter

// Report forwards msg to each reporter in order
func (m Multi) Report(msg Message) {
	for _, r := range m {
		r.Report(msg)
	}
}

// LogReporter writes messages to a structured logger
type LogReporter struct {
	log *slog.Logger
}

// NewLogReporter creates a reporter writing to log
func NewLogReporter(log *slog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// Report logs msg at its level
func (r *LogReporter) Report(msg Message) {
	lvl := slog.LevelInfo
	switch msg.Level {
	case LevelWarn:
		lvl = slog.LevelWarn
	case LevelError:
		lvl = slog.LevelError
	}

	attrs := []any{}
	if msg.Session != "" {
		attrs = append(attrs, slog.String("session", msg.Session))
	}
	if msg.State != "" {
		attrs = append(attrs, slog.String("state", msg.State))
	}
	r.log.Log(context.Background(), lvl, msg.Text, attrs...)
}

// Info builds an info message stamped now
func Info(text string) Message {
	return Message{Time: time.Now(), Level: LevelInfo, Text: text}
}

// Error builds an error message stamped now
func Error(text string) Message {
	return Message{Time: time.Now(), Level: LevelError, Text: text}
}
