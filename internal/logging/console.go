package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"
)

// consoleHandler writes one human-readable line per record:
//
//	2026-10-19T09:14:03Z INFO [IdleArmed/link] frame sent bytes=4
//
// Top-level state and component attributes become the bracketed subject.
// Attributes added through WithAttrs are rendered once and reused.
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	source bool

	group     string
	state     string
	component string
	fields    []byte
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source bool) *consoleHandler {
	return &consoleHandler{mu: new(sync.Mutex), w: w, level: level, source: source}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	line := *h
	line.fields = append([]byte(nil), h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		line.appendAttr(h.group, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf := make([]byte, 0, 96+len(r.Message)+len(line.fields))
	buf = ts.UTC().AppendFormat(buf, time.RFC3339)
	buf = append(buf, ' ')
	buf = append(buf, levelName(r.Level)...)
	if subject := line.subject(); subject != "" {
		buf = append(buf, " ["...)
		buf = append(buf, subject...)
		buf = append(buf, ']')
	}
	buf = append(buf, ' ')
	if r.Message == "" {
		buf = append(buf, "(no message)"...)
	} else {
		buf = append(buf, r.Message...)
	}
	if h.source {
		if src := r.Source(); src != nil && src.File != "" {
			buf = append(buf, " <"...)
			buf = append(buf, filepath.Base(src.File)...)
			buf = append(buf, ':')
			buf = strconv.AppendInt(buf, int64(src.Line), 10)
			buf = append(buf, '>')
		}
	}
	buf = append(buf, line.fields...)
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.fields = append([]byte(nil), h.fields...)
	for _, a := range attrs {
		clone.appendAttr(h.group, a)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

func (h *consoleHandler) subject() string {
	switch {
	case h.state != "" && h.component != "":
		return h.state + "/" + h.component
	case h.state != "":
		return h.state
	}
	return h.component
}

func (h *consoleHandler) appendAttr(group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := group
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			h.appendAttr(inner, member)
		}
		return
	}
	if group == "" {
		switch a.Key {
		case FieldState:
			h.state = textOf(a.Value)
			return
		case FieldComponent:
			h.component = textOf(a.Value)
			return
		}
	}
	h.fields = append(h.fields, ' ')
	h.fields = append(h.fields, group...)
	h.fields = append(h.fields, a.Key...)
	h.fields = append(h.fields, '=')
	h.fields = appendValue(h.fields, a.Value)
}

func appendValue(dst []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.AppendInt(dst, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(dst, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(dst, v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(dst, v.Bool())
	case slog.KindDuration:
		return append(dst, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(dst, time.RFC3339)
	}
	s := textOf(v)
	if needsQuoting(s) {
		return strconv.AppendQuote(dst, s)
	}
	return append(dst, s...)
}

func textOf(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

func needsQuoting(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r == 0x7f {
			return true
		}
	}
	return false
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	}
	return "DEBUG"
}
