package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RequestHandler represents a function that handles MCP requests
type RequestHandler func(ctx context.Context, req *Request) *Response

// MiddlewareFunc represents a middleware function
type MiddlewareFunc func(next RequestHandler) RequestHandler

type requestIDKey struct{}

// Use appends middleware to the chain. The first middleware registered is the
// outermost one.
func (s *Server) Use(middlewares ...MiddlewareFunc) *Server {
	s.middlewares = append(s.middlewares, middlewares...)
	return s
}

// ContextWithRequestID returns a copy of ctx carrying id
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored by RequestIDMiddleware
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestIDMiddleware assigns a unique id to each request unless the
// transport already did
func RequestIDMiddleware() MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return func(ctx context.Context, req *Request) *Response {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, uuid.NewString())
			}
			return next(ctx, req)
		}
	}
}

// LoggingMiddleware logs one record per request
func LoggingMiddleware(logger *slog.Logger) MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next RequestHandler) RequestHandler {
		return func(ctx context.Context, req *Request) *Response {
			start := time.Now()

			response := next(ctx, req)

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("id", string(req.ID)),
				slog.Duration("duration", time.Since(start)),
			}
			if requestID := RequestIDFromContext(ctx); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			level := slog.LevelDebug
			if response != nil && response.Error != nil {
				attrs = append(attrs,
					slog.Int("error_code", response.Error.Code),
					slog.String("error_message", response.Error.Message),
				)
				level = slog.LevelInfo
				if response.Error.Code == CodeInternalError {
					level = slog.LevelError
				}
			}

			logger.LogAttrs(ctx, level, "request handled", attrs...)
			return response
		}
	}
}
