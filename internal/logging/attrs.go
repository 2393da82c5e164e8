package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

// Keys shared by the sync and mux pipelines so history, logs, and the JSON
// handler agree on names.
const (
	FieldSubtitle = "subtitle"
	FieldLanguage = "lang"
	FieldBackup   = "backup"
	FieldOutput   = "output"
	FieldExitCode = "exit_code"
	FieldBinary   = "binary"
)

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Strings(key string, values []string) Attr { return slog.Any(key, values) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func Subtitle(path string) Attr { return slog.String(FieldSubtitle, path) }

func Lang(code string) Attr { return slog.String(FieldLanguage, code) }

func Backup(path string) Attr { return slog.String(FieldBackup, path) }

func Output(path string) Attr { return slog.String(FieldOutput, path) }

// ExitCode records a child exit status; zero is kept so successful runs are
// searchable too.
func ExitCode(code int) Attr { return slog.Int(FieldExitCode, code) }

func Binary(path string) Attr { return slog.String(FieldBinary, path) }

// Hint tells the operator what to try next.
func Hint(msg string) Attr { return slog.String(FieldErrorHint, msg) }

// Impact says what the failure cost, e.g. which subtitles stay unsynced.
func Impact(msg string) Attr { return slog.String(FieldImpact, msg) }

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with the component name. A nil logger
// yields a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// withDefaults appends def for every key in def that attrs does not set.
func withDefaults(attrs []Attr, def ...Attr) []Attr {
	for _, d := range def {
		found := false
		for _, a := range attrs {
			if a.Key == d.Key {
				found = true
				break
			}
		}
		if !found {
			attrs = append(attrs, d)
		}
	}
	return attrs
}

// WarnWithContext logs a warning that always carries event_type, error_hint,
// and impact.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		String(FieldEventType, eventType),
		Hint("check logs for details"),
		Impact("run continued without this step"),
	)
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error that always carries event_type and
// error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		String(FieldEventType, eventType),
		Hint("check the tool output above"),
	)
	logger.Error(msg, Args(attrs...)...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
