package pkg

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Component identifies a subsystem for log filtering.
type Component string

// Driver component identifiers.
const (
	ComponentDriver  Component = "driver"
	ComponentRing    Component = "ring"
	ComponentLink    Component = "link"
	ComponentIRQ     Component = "irq"
	ComponentControl Component = "control"
	ComponentHAL     Component = "hal"
	ComponentRPC     Component = "rpc"
)

// LogFormat selects the handler used by SetLogFormat.
type LogFormat int

// Log format options.
const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

// String returns the configuration name of f.
func (f LogFormat) String() string {
	if f == LogFormatJSON {
		return "json"
	}
	return "text"
}

// level is shared by every handler built in this package, so SetLogLevel
// takes effect without rebuilding the logger.
var level = func() *slog.LevelVar {
	v := new(slog.LevelVar)
	v.Set(slog.LevelWarn)
	return v
}()

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(NewLogger(os.Stderr, nil))
}

// SetLogLevel sets the minimum level for all driver logging.
func SetLogLevel(l slog.Level) { level.Set(l) }

// GetLogLevel returns the minimum level for driver logging.
func GetLogLevel() slog.Level { return level.Level() }

// SetLogger replaces the logger used by the Log* helpers. A nil logger
// restores the stderr text logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = NewLogger(os.Stderr, nil)
	}
	current.Store(l)
}

// Logger returns the logger used by the Log* helpers.
func Logger() *slog.Logger { return current.Load() }

// SetLogFormat installs a stderr logger of the given format at the
// package level.
func SetLogFormat(format LogFormat) {
	SetLogger(newFormatLogger(os.Stderr, format, nil))
}

// ParseLogFormat maps a configuration name to a LogFormat. The empty
// string selects text.
func ParseLogFormat(s string) (LogFormat, bool) {
	switch s {
	case "", LogFormatText.String():
		return LogFormatText, true
	case LogFormatJSON.String():
		return LogFormatJSON, true
	}
	return LogFormatText, false
}

// ParseLogLevel maps a configuration name to a slog level. Names are
// case-insensitive and accept offsets such as "warn+2". The empty string
// selects warn.
func ParseLogLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return l, nil
}

// NewLogger returns a text logger on w. With nil opts it follows the
// package level.
func NewLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return newFormatLogger(w, LogFormatText, opts)
}

// NewJSONLogger returns a JSON logger on w. With nil opts it follows the
// package level.
func NewJSONLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return newFormatLogger(w, LogFormatJSON, opts)
}

func newFormatLogger(w io.Writer, format LogFormat, opts *slog.HandlerOptions) *slog.Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: level}
	}
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func emit(l slog.Level, c Component, msg string, args []any) {
	lg := current.Load()
	ctx := context.Background()
	if !lg.Enabled(ctx, l) {
		return
	}
	attrs := make([]any, 0, len(args)+2)
	attrs = append(attrs, "component", string(c))
	lg.Log(ctx, l, msg, append(attrs, args...)...)
}

// LogDebug logs at debug level tagged with component c.
func LogDebug(c Component, msg string, args ...any) { emit(slog.LevelDebug, c, msg, args) }

// LogInfo logs at info level tagged with component c.
func LogInfo(c Component, msg string, args ...any) { emit(slog.LevelInfo, c, msg, args) }

// LogWarn logs at warn level tagged with component c.
func LogWarn(c Component, msg string, args ...any) { emit(slog.LevelWarn, c, msg, args) }

// LogError logs at error level tagged with component c.
func LogError(c Component, msg string, args ...any) { emit(slog.LevelError, c, msg, args) }
