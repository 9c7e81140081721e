package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// sensitiveKeys contains attribute keys that are always masked. They are
// the keys under which captured or operator secrets plausibly appear in
// this codebase.
var sensitiveKeys = map[string]bool{
	"password":    true,
	"passwd":      true,
	"secret":      true,
	"credential":  true,
	"credentials": true,
	"token":       true,
	"api_key":     true,
	"apikey":      true,
	"private_key": true,
}

// sensitiveKeywords are substrings that mark a key as sensitive even when
// it is not an exact match, e.g. "peer_password".
var sensitiveKeywords = []string{"password", "passwd", "secret", "token", "credential"}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// RedactingHandler wraps an slog.Handler and masks sensitive attribute
// values before passing records on. It works with any underlying handler
// and composes with the standard slog APIs.
type RedactingHandler struct {
	handler slog.Handler
}

// NewRedactingHandler creates a RedactingHandler wrapping the given
// handler. If handler is nil, slog.Default()'s handler is used.
func NewRedactingHandler(handler slog.Handler) *RedactingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactingHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's sensitive attributes and passes it on.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added, masked
// first.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = h.maskAttr(a)
	}
	return &RedactingHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks a single attribute, recursively handling groups.
func (h *RedactingHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			maskedAttrs[i] = h.maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	}

	if isSensitiveKey(strings.ToLower(a.Key)) {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

// isSensitiveKey reports whether a lowercased key names a secret.
func isSensitiveKey(key string) bool {
	if sensitiveKeys[key] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// NewLogger creates a redacting text logger. With verbose set the level
// is Debug, which traces every negotiation command; otherwise Info.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(textHandler))
}
