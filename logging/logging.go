/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package logging adapts log/slog to the resolver's Logger port.
package logging

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"

	"bennypowers.dev/nativefed/model"
)

// Options configures a Logger.
type Options struct {
	// Level is the minimum level written.
	Level slog.Level
	// JSON switches from the pretty handler to slog's JSON handler.
	JSON bool
	// NoColor disables colored level prefixes.
	NoColor bool
}

// Logger writes Debug, Warn and Error events at or above a minimum level.
// Errors carrying zerr metadata are logged with that metadata as attributes.
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) *Logger {
	level := &slog.LevelVar{}
	level.Set(opts.Level)

	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = NewPrettyHandler(w, hopts, opts.NoColor)
	}
	return &Logger{logger: slog.New(handler), level: level}
}

// ParseLevel maps "debug", "warn" and "error" to slog levels. "info" is
// accepted as well for the CLI's sake.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, model.WithAttrs(
			model.Errorf(model.ErrInvalidConfig, "unknown log level %q", s),
			"logLevel", s)
	}
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Slog exposes the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, err error) {
	l.log(slog.LevelDebug, msg, err)
}

// Info logs at info level.
func (l *Logger) Info(msg string, err error) {
	l.log(slog.LevelInfo, msg, err)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, err error) {
	l.log(slog.LevelWarn, msg, err)
}

// Error logs at error level.
func (l *Logger) Error(msg string, err error) {
	l.log(slog.LevelError, msg, err)
}

// LogError logs err on its own, using its message and metadata.
func (l *Logger) LogError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	zerr.Log(ctx, l.logger, err)
}

func (l *Logger) log(level slog.Level, msg string, err error) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	if err == nil {
		l.logger.Log(ctx, level, msg)
		return
	}
	md := metadata(err)
	attrs := make([]any, 0, len(md)+1)
	attrs = append(attrs, slog.String("error", err.Error()))
	for _, k := range slices.Sorted(maps.Keys(md)) {
		attrs = append(attrs, slog.Any(k, md[k]))
	}
	l.logger.Log(ctx, level, msg, attrs...)
}

// metadata collects zerr metadata from every error in the chain.
func metadata(err error) map[string]any {
	out := map[string]any{}
	for err != nil {
		if z, ok := err.(*zerr.Error); ok {
			for k, v := range z.Metadata() {
				if _, seen := out[k]; !seen {
					out[k] = v
				}
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return out
}
