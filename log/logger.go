// Package log builds the slog.Logger used across the authenticator:
// a text or JSON handler wrapped so that the request-scoped fields
// attached to a context (request id, peer identity) are always emitted,
// without every call site having to pass them explicitly.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Formats lists the accepted values for New's format argument (the config
// file's log.format setting); an empty format selects text.
var Formats = []string{"text", "json"}

// contextKey distinguishes this package's context values from everyone
// else's.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	peerKey      contextKey = "peer"
)

// WithRequestID returns a context carrying requestID for the duration of a
// single request, to be picked up automatically by any Logger built with
// New.
func WithRequestID(ctx context.Context, requestID uint64) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithPeer returns a context carrying the canonical string form of the
// authenticated peer identity handling the current request.
func WithPeer(ctx context.Context, peer string) context.Context {
	return context.WithValue(ctx, peerKey, peer)
}

// New builds a *slog.Logger at level, writing format-encoded records to
// os.Stderr.
func New(level slog.Level, format string) (*slog.Logger, error) {
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("log: format must be one of (%s), got %q", strings.Join(Formats, ", "), format)
	}
	return slog.New(newRequestContextHandler(handler)), nil
}

var _ slog.Handler = requestContextHandler{}

// requestContextHandler decorates every record with request_id and peer
// attributes pulled from the context, when present.
type requestContextHandler struct {
	handler slog.Handler
}

func newRequestContextHandler(handler slog.Handler) slog.Handler {
	return requestContextHandler{handler: handler}
}

func (h requestContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h requestContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if v, ok := ctx.Value(requestIDKey).(uint64); ok {
		record.AddAttrs(slog.Uint64(string(requestIDKey), v))
	}
	if v, ok := ctx.Value(peerKey).(string); ok {
		record.AddAttrs(slog.String(string(peerKey), v))
	}
	return h.handler.Handle(ctx, record)
}

func (h requestContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestContextHandler{h.handler.WithAttrs(attrs)}
}

func (h requestContextHandler) WithGroup(name string) slog.Handler {
	return requestContextHandler{h.handler.WithGroup(name)}
}
