// Package log provides structured logging for the churnlab pipeline.
//
// Logging goes through Go's log/slog with a JSON handler. Errors created by
// pkg/errors carry cockroachdb stack traces; the handler installed here
// extracts them into a dedicated "stacktrace" attribute so that log
// aggregation can index them. Library warnings (convergence, undefined
// metrics) are routed into a zerolog sink so they show up as structured
// events rather than free-form prints.
package log

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	cherrors "github.com/YuminosukeSato/churnlab/pkg/errors"
)

// SetupLogger installs the default slog JSON logger at the given level and
// wires library warnings into zerolog.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))

	installWarnSink()
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	// ErrAttrKey is the attribute key carrying the error value.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the attribute key carrying the extracted stack.
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps err for passing to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// installWarnSink routes pkg/errors warnings through zerolog. Warning types
// that implement zerolog.LogObjectMarshaler are logged with their structured
// fields; anything else falls back to the message.
func installWarnSink() {
	zl := zerolog.New(os.Stderr).With().Timestamp().Str("component", "churnlab").Logger()
	cherrors.SetZerologWarnFunc(func(warning error) {
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			zl.Warn().EmbedObject(marshaler).Msg(warning.Error())
			return
		}
		zl.Warn().Msg(warning.Error())
	})
}
