package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketConfig configures WebSocket transport
type WebSocketConfig struct {
	ReadBufferSize    int           `json:"readBufferSize"`
	WriteBufferSize   int           `json:"writeBufferSize"`
	HandshakeTimeout  time.Duration `json:"handshakeTimeout"`
	ReadDeadline      time.Duration `json:"readDeadline"`
	WriteDeadline     time.Duration `json:"writeDeadline"`
	PingInterval      time.Duration `json:"pingInterval"`
	MaxMessageSize    int64         `json:"maxMessageSize"`
	EnableCompression bool          `json:"enableCompression"`
}

// DefaultWebSocketConfig returns default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		HandshakeTimeout:  10 * time.Second,
		ReadDeadline:      60 * time.Second,
		WriteDeadline:     10 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageSize:    1 << 20,
		EnableCompression: true,
	}
}

// WebSocketConnection is one client session. Every text frame carries one
// JSON-RPC message, answered on the same connection.
type WebSocketConnection struct {
	id      string
	conn    *websocket.Conn
	config  WebSocketConfig
	logger  *slog.Logger
	cancel  context.CancelFunc
	writeMu sync.Mutex
}

// WebSocketManager manages WebSocket connections
type WebSocketManager struct {
	upgrader    websocket.Upgrader
	config      WebSocketConfig
	server      *Server
	logger      *slog.Logger
	connections map[string]*WebSocketConnection
	mu          sync.RWMutex
}

// NewWebSocketManager creates a new WebSocket manager
func NewWebSocketManager(server *Server, config WebSocketConfig) *WebSocketManager {
	if config.ReadBufferSize == 0 {
		config = DefaultWebSocketConfig()
	}

	return &WebSocketManager{
		upgrader: websocket.Upgrader{
			ReadBufferSize:    config.ReadBufferSize,
			WriteBufferSize:   config.WriteBufferSize,
			HandshakeTimeout:  config.HandshakeTimeout,
			EnableCompression: config.EnableCompression,
			// Widgets are served from another origin than the server.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		config:      config,
		server:      server,
		logger:      server.logger.With("transport", "websocket"),
		connections: make(map[string]*WebSocketConnection),
	}
}

// HandleWebSocket upgrades the request and serves the connection until the
// client goes away or CloseAll is called
func (wsm *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsm.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsConn := wsm.createConnection(conn, cancel)

	wsm.mu.Lock()
	wsm.connections[wsConn.id] = wsConn
	wsm.mu.Unlock()

	wsConn.logger.Info("websocket connection established")

	go wsConn.pinger(ctx)

	if err := wsm.server.Serve(ctx, wsConn); err != nil {
		wsConn.logger.Warn("websocket session ended with error", "error", err)
	}

	wsm.mu.Lock()
	delete(wsm.connections, wsConn.id)
	wsm.mu.Unlock()

	conn.Close()
	wsConn.logger.Info("websocket connection closed")
}

func (wsm *WebSocketManager) createConnection(conn *websocket.Conn, cancel context.CancelFunc) *WebSocketConnection {
	id := uuid.NewString()

	wsConn := &WebSocketConnection{
		id:     id,
		conn:   conn,
		config: wsm.config,
		logger: wsm.logger.With("connection", id),
		cancel: cancel,
	}

	conn.SetReadLimit(wsm.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsm.config.ReadDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsm.config.ReadDeadline))
	})

	return wsConn
}

// ID returns the connection id
func (wsc *WebSocketConnection) ID() string {
	return wsc.id
}

// Receive returns the payload of the next data frame
func (wsc *WebSocketConnection) Receive(ctx context.Context) (json.RawMessage, error) {
	for {
		_, data, err := wsc.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil, io.EOF
			}
			return nil, err
		}

		wsc.conn.SetReadDeadline(time.Now().Add(wsc.config.ReadDeadline))

		if len(data) > 0 {
			return data, nil
		}
	}
}

// Send writes response as a single text frame
func (wsc *WebSocketConnection) Send(ctx context.Context, response *Response) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()

	wsc.conn.SetWriteDeadline(time.Now().Add(wsc.config.WriteDeadline))
	return wsc.conn.WriteJSON(response)
}

// pinger sends periodic ping frames until ctx is done
func (wsc *WebSocketConnection) pinger(ctx context.Context) {
	ticker := time.NewTicker(wsc.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(wsc.config.WriteDeadline)
			if err := wsc.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				wsc.logger.Debug("websocket ping failed", "error", err)
				wsc.close()
				return
			}
		}
	}
}

// close stops the session and unblocks a pending Receive
func (wsc *WebSocketConnection) close() {
	wsc.cancel()
	wsc.conn.Close()
}

// Count returns the number of live connections
func (wsm *WebSocketManager) Count() int {
	wsm.mu.RLock()
	defer wsm.mu.RUnlock()
	return len(wsm.connections)
}

// CloseAll sends a going-away close frame to every client and drops the
// connections
func (wsm *WebSocketManager) CloseAll() {
	wsm.mu.RLock()
	connections := make([]*WebSocketConnection, 0, len(wsm.connections))
	for _, conn := range wsm.connections {
		connections = append(connections, conn)
	}
	wsm.mu.RUnlock()

	for _, conn := range connections {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		conn.close()
	}
}
