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

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// PrettyHandler is a slog.Handler that writes one colored line per record.
type PrettyHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string

	debug, warn, err *color.Color
}

// NewPrettyHandler creates a handler writing to w. A nil writer means
// os.Stderr. Colors follow fatih/color's terminal detection unless noColor
// is set.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions, noColor bool) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	h := &PrettyHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		debug: color.New(color.Faint),
		warn:  color.New(color.FgYellow),
		err:   color.New(color.FgRed, color.Bold),
	}
	if noColor {
		h.debug.DisableColor()
		h.warn.DisableColor()
		h.err.DisableColor()
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var prefix string
	var c *color.Color

	switch {
	case r.Level >= slog.LevelError:
		prefix, c = "ERROR", h.err
	case r.Level >= slog.LevelWarn:
		prefix, c = "WARN", h.warn
	case r.Level >= slog.LevelInfo:
		prefix, c = "INFO", nil
	default:
		prefix, c = "DEBUG", h.debug
	}
	if c != nil {
		prefix = c.Sprint(prefix)
	}

	parts := make([]string, 0, len(h.attrs)+r.NumAttrs()+2)
	parts = append(parts, prefix, r.Message)
	for _, attr := range h.attrs {
		parts = append(parts, formatAttr(h.group, attr))
	}
	r.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, formatAttr(h.group, attr))
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, strings.Join(parts, " ")+"\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(clone.attrs, h.attrs)
	copy(clone.attrs[len(h.attrs):], attrs)
	return &clone
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.group = name
	return &clone
}

func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.Resolve().String()
}
