// Package logger builds the JSON line logger shared by the API, the admin CLI
// and the migration runner.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	mu     sync.RWMutex
	global = slog.New(slog.NewJSONHandler(io.Discard, nil))
)

// Options configures New.
type Options struct {
	Debug    bool
	Location *time.Location
}

// New returns a JSON logger writing one object per line to w. Timestamps are
// emitted under "ts" in the configured location and sensitive attributes are
// redacted.
func New(w io.Writer, opt Options) *slog.Logger {
	loc := opt.Location
	if loc == nil {
		loc = time.UTC
	}
	level := slog.LevelInfo
	if opt.Debug {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	})
	return slog.New(NewRedactingHandler(h))
}

// Setup installs a stdout logger as the package default and returns it.
func Setup(opt Options) *slog.Logger {
	l := New(os.Stdout, opt)
	mu.Lock()
	global = l
	mu.Unlock()
	return l
}

// L returns the logger installed by Setup, or a discarding logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

var sensitiveFields = map[string]struct{}{
	"cpf":      {},
	"base64":   {},
	"password": {},
	"secret":   {},
	"token":    {},
}

// RedactingHandler replaces sensitive attribute values before they reach the
// wrapped handler. Phone numbers keep a short prefix.
type RedactingHandler struct {
	inner slog.Handler
}

func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		clean = append(clean, redact(a))
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(clean)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func redact(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		clean := make([]slog.Attr, 0, len(attrs))
		for _, ga := range attrs {
			clean = append(clean, redact(ga))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}
	if _, ok := sensitiveFields[key]; ok {
		return slog.String(a.Key, "[REDACTED]")
	}
	if key == "whatsapp" || key == "phone" {
		return slog.String(a.Key, MaskPhone(a.Value.String()))
	}
	return a
}

// MaskPhone keeps the first five characters of a phone number.
func MaskPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= 5 {
		return phone + "***"
	}
	return string(r[:5]) + "***"
}
