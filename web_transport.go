package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// WebConfig configures the web transport
type WebConfig struct {
	Port           int           `json:"port"`
	Host           string        `json:"host"`
	AuthToken      string        `json:"authToken,omitempty"`
	EnableCORS     bool          `json:"enableCORS"`
	ReadTimeout    time.Duration `json:"readTimeout"`
	WriteTimeout   time.Duration `json:"writeTimeout"`
	MaxRequestSize int64         `json:"maxRequestSize"`
}

// DefaultWebConfig returns default web configuration
func DefaultWebConfig() WebConfig {
	return WebConfig{
		Port:           3000,
		Host:           "0.0.0.0",
		EnableCORS:     true,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

// WebTransport serves the server over HTTP: JSON-RPC on /mcp, a REST facade
// under /api/v1 and WebSocket sessions on /ws
type WebTransport struct {
	config     WebConfig
	server     *Server
	httpServer *http.Server
	mux        *http.ServeMux
	websockets *WebSocketManager
	logger     *slog.Logger
	started    time.Time
}

// NewWebTransport creates a new web transport
func NewWebTransport(server *Server, config WebConfig) *WebTransport {
	if config.Port == 0 {
		config.Port = DefaultWebConfig().Port
	}
	if config.MaxRequestSize <= 0 {
		config.MaxRequestSize = DefaultWebConfig().MaxRequestSize
	}

	mux := http.NewServeMux()

	wt := &WebTransport{
		config: config,
		server: server,
		mux:    mux,
		logger: server.logger.With("transport", "http"),
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
			Handler:      mux,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		started: time.Now(),
	}
	wt.websockets = NewWebSocketManager(server, DefaultWebSocketConfig())

	wt.registerRoutes()

	return wt
}

func (wt *WebTransport) registerRoutes() {
	wt.mux.HandleFunc("/health", wt.withCORS(wt.withLogging(wt.handleHealth)))
	wt.mux.HandleFunc("/api/health", wt.withCORS(wt.withLogging(wt.handleHealth)))

	wt.mux.HandleFunc("/mcp", wt.withMiddleware(wt.handleMCP))
	wt.mux.HandleFunc("/api/mcp", wt.withMiddleware(wt.handleMCP))

	wt.mux.HandleFunc("/api/v1/server/info", wt.withMiddleware(wt.handleServerInfo))
	wt.mux.HandleFunc("/api/v1/tools/list", wt.withMiddleware(wt.handleToolsList))
	wt.mux.HandleFunc("/api/v1/tools/call", wt.withMiddleware(wt.handleToolsCall))
	wt.mux.HandleFunc("/api/v1/resources/list", wt.withMiddleware(wt.handleResourcesList))
	wt.mux.HandleFunc("/api/v1/resources/read", wt.withMiddleware(wt.handleResourcesRead))

	wt.mux.HandleFunc("/ws", wt.withMiddleware(wt.websockets.HandleWebSocket))
}

// withMiddleware applies middleware to handlers
func (wt *WebTransport) withMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return wt.withCORS(wt.withLogging(wt.withAuth(handler)))
}

// withCORS adds CORS headers and answers preflight requests
func (wt *WebTransport) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wt.config.EnableCORS {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		handler(w, r)
	}
}

// withAuth checks the bearer token when one is configured
func (wt *WebTransport) withAuth(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wt.config.AuthToken == "" || r.Method == http.MethodOptions {
			handler(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			wt.writeError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}
		if token != wt.config.AuthToken {
			wt.writeError(w, http.StatusUnauthorized, "Invalid authorization token")
			return
		}

		handler(w, r)
	}
}

// bearerToken reads the token from the Authorization header, falling back to
// the token query parameter browsers use for WebSocket upgrades
func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		return token, found
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}
	return "", false
}

// withLogging logs one record per HTTP request and propagates X-Request-ID
func (wt *WebTransport) withLogging(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
			r = r.WithContext(ContextWithRequestID(r.Context(), requestID))
			w.Header().Set("X-Request-ID", requestID)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		wt.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start),
		)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the logging wrapper
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// handleMCP serves one JSON-RPC message per POST body
func (wt *WebTransport) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
		wt.writeJSON(w, http.StatusOK, wt.serviceInfo())
		return
	case http.MethodPost:
	default:
		wt.writeJSON(w, http.StatusMethodNotAllowed, errorResponse(nil, NewError(CodeMethodNotFound, "Method not allowed")))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, wt.config.MaxRequestSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			wt.writeJSON(w, http.StatusRequestEntityTooLarge,
				errorResponse(nil, NewError(CodeInvalidRequest, "Invalid Request").WithData("request body too large")))
			return
		}
		wt.writeJSON(w, http.StatusBadRequest, errorResponse(nil, NewError(CodeParseError, "Parse error")))
		return
	}

	response := wt.server.HandleMessage(r.Context(), body)
	if response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	wt.writeJSON(w, httpStatus(response.Error), response)
}

// httpStatus maps a JSON-RPC outcome onto an HTTP status code
func httpStatus(err *Error) int {
	if err == nil {
		return http.StatusOK
	}
	switch err.Code {
	case CodeParseError, CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// serviceInfo describes the JSON-RPC endpoint for GET requests
func (wt *WebTransport) serviceInfo() map[string]interface{} {
	return map[string]interface{}{
		"name":        wt.server.name,
		"version":     wt.server.version,
		"description": wt.server.description,
		"protocol":    "MCP/JSON-RPC 2.0",
		"endpoints": map[string]string{
			"mcp":       "/mcp",
			"health":    "/health",
			"websocket": "/ws",
		},
	}
}

// Handler returns the HTTP handler serving every route
func (wt *WebTransport) Handler() http.Handler {
	return wt.mux
}

// Addr returns the listen address
func (wt *WebTransport) Addr() string {
	return wt.httpServer.Addr
}

// WebSockets returns the manager tracking live WebSocket connections
func (wt *WebTransport) WebSockets() *WebSocketManager {
	return wt.websockets
}

// ListenAndServe blocks serving HTTP until Shutdown is called
func (wt *WebTransport) ListenAndServe() error {
	wt.logger.Info("starting web transport", "addr", wt.httpServer.Addr)

	if err := wt.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Shutdown closes WebSocket sessions and drains in-flight HTTP requests
func (wt *WebTransport) Shutdown(ctx context.Context) error {
	wt.logger.Info("stopping web transport")

	wt.websockets.CloseAll()

	if err := wt.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// writeJSON writes a JSON response
func (wt *WebTransport) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		wt.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (wt *WebTransport) writeError(w http.ResponseWriter, status int, message string) {
	wt.writeJSON(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    status,
			Message: message,
		},
	})
}
