package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	trace := func(name string) MiddlewareFunc {
		return func(next RequestHandler) RequestHandler {
			return func(ctx context.Context, req *Request) *Response {
				order = append(order, name+">")
				response := next(ctx, req)
				order = append(order, "<"+name)
				return response
			}
		}
	}

	server := NewServer("test", "1.0.0")
	server.Use(trace("outer"), trace("inner"))

	handle(t, server, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, []string{"outer>", "inner>", "<inner", "<outer"}, order)
}

func TestPanickingMiddlewareIsRecovered(t *testing.T) {
	server := NewServer("test", "1.0.0")
	server.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	server.Use(func(next RequestHandler) RequestHandler {
		return func(ctx context.Context, req *Request) *Response {
			panic("middleware exploded")
		}
	})

	var response *Response
	require.NotPanics(t, func() {
		response = handle(t, server, `{"jsonrpc":"2.0","id":9,"method":"ping"}`)
	})
	require.NotNil(t, response.Error)
	assert.Equal(t, CodeInternalError, response.Error.Code)
	assert.Equal(t, "middleware exploded", response.Error.Data)
	assert.JSONEq(t, `9`, string(response.ID))
}

func TestHandlerPanicReachesMiddlewareAsResponse(t *testing.T) {
	var seen *Response
	server := NewServer("test", "1.0.0")
	server.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	server.Use(func(next RequestHandler) RequestHandler {
		return func(ctx context.Context, req *Request) *Response {
			seen = next(ctx, req)
			return seen
		}
	})
	server.AddTool(echoTool("panics"), func(ctx context.Context, arguments json.RawMessage) (*CallToolResult, error) {
		panic("boom")
	})

	handle(t, server, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"panics"}}`)
	require.NotNil(t, seen)
	require.NotNil(t, seen.Error)
	assert.Equal(t, CodeInternalError, seen.Error.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen []string
	server := NewServer("test", "1.0.0")
	server.Use(RequestIDMiddleware())
	server.AddTool(echoTool("id"), func(ctx context.Context, arguments json.RawMessage) (*CallToolResult, error) {
		seen = append(seen, RequestIDFromContext(ctx))
		return &CallToolResult{}, nil
	})

	message := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"id"}}`)
	server.HandleMessage(context.Background(), message)
	server.HandleMessage(context.Background(), message)
	server.HandleMessage(ContextWithRequestID(context.Background(), "from-transport"), message)

	require.Len(t, seen, 3)
	_, err := uuid.Parse(seen[0])
	assert.NoError(t, err)
	assert.NotEqual(t, seen[0], seen[1])
	assert.Equal(t, "from-transport", seen[2])
}

func TestRequestIDFromContextEmpty(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	server := NewServer("test", "1.0.0")
	server.Use(RequestIDMiddleware(), LoggingMiddleware(logger))

	handle(t, server, `{"jsonrpc":"2.0","id":7,"method":"ping"}`)
	handle(t, server, `{"jsonrpc":"2.0","id":8,"method":"nope"}`)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ok map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	assert.Equal(t, "DEBUG", ok["level"])
	assert.Equal(t, "ping", ok["method"])
	assert.Equal(t, "7", ok["id"])
	assert.NotEmpty(t, ok["request_id"])
	assert.NotContains(t, ok, "error_code")

	var failed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))
	assert.Equal(t, "INFO", failed["level"])
	assert.Equal(t, float64(CodeMethodNotFound), failed["error_code"])
}
