package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// APIResponse is the envelope of every REST facade response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ToolCallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type ResourceReadRequest struct {
	URI string `json:"uri"`
}

// handleHealth handles health check requests
func (wt *WebTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		wt.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	wt.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":      "healthy",
			"name":        wt.server.name,
			"version":     wt.server.version,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"uptime":      time.Since(wt.started).Round(time.Second).String(),
			"connections": wt.websockets.Count(),
		},
	})
}

// handleServerInfo handles GET /api/v1/server/info
func (wt *WebTransport) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		wt.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	wt.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"name":            wt.server.name,
			"version":         wt.server.version,
			"description":     wt.server.description,
			"protocolVersion": ProtocolVersion,
			"capabilities":    wt.server.Capabilities(),
			"features": map[string]bool{
				"websocket":      true,
				"authentication": wt.config.AuthToken != "",
			},
			"statistics": map[string]int{
				"tools_count":     len(wt.server.tools),
				"resources_count": len(wt.server.resources),
			},
		},
	})
}

// handleToolsList handles GET /api/v1/tools/list
func (wt *WebTransport) handleToolsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		wt.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	wt.forward(w, r, MethodToolsList, nil)
}

// handleToolsCall handles POST /api/v1/tools/call
func (wt *WebTransport) handleToolsCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wt.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var toolCall ToolCallRequest
	if !wt.decodeBody(w, r, &toolCall) {
		return
	}
	if toolCall.Name == "" {
		wt.writeError(w, http.StatusBadRequest, "Tool name is required")
		return
	}

	wt.forward(w, r, MethodToolsCall, toolsCallParams{Name: toolCall.Name, Arguments: toolCall.Arguments})
}

// handleResourcesList handles GET /api/v1/resources/list
func (wt *WebTransport) handleResourcesList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		wt.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	wt.forward(w, r, MethodResourcesList, nil)
}

// handleResourcesRead handles POST /api/v1/resources/read
func (wt *WebTransport) handleResourcesRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		wt.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var resourceRead ResourceReadRequest
	if !wt.decodeBody(w, r, &resourceRead) {
		return
	}
	if resourceRead.URI == "" {
		wt.writeError(w, http.StatusBadRequest, "Resource URI is required")
		return
	}

	wt.forward(w, r, MethodResourcesRead, resourcesReadParams{URI: resourceRead.URI})
}

// decodeBody reads a size-limited JSON body, writing the error response
// itself when that fails
func (wt *WebTransport) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, wt.config.MaxRequestSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			wt.writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		wt.writeError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		wt.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

// forward runs a synthesized JSON-RPC request through the server and wraps
// the outcome in an APIResponse
func (wt *WebTransport) forward(w http.ResponseWriter, r *http.Request, method string, params interface{}) {
	req := &Request{
		JSONRPC: JSONRPCVersion,
		ID:      wt.generateRequestID(),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			wt.writeError(w, http.StatusInternalServerError, "Failed to serialize parameters")
			return
		}
		req.Params = raw
	}

	response := wt.server.HandleRequest(r.Context(), req)

	if response.Error != nil {
		status := httpStatus(response.Error)
		if status == http.StatusOK {
			status = apiErrorStatus(response.Error.Code)
		}
		wt.writeJSON(w, status, APIResponse{
			Success: false,
			Error: &APIError{
				Code:    response.Error.Code,
				Message: response.Error.Message,
				Details: response.Error.Data,
			},
		})
		return
	}

	wt.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    response.Result,
	})
}

// apiErrorStatus maps method-level JSON-RPC errors onto REST status codes
func apiErrorStatus(code int) int {
	switch code {
	case CodeMethodNotFound, CodeResourceNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// generateRequestID generates a unique JSON-RPC id for facade requests
func (wt *WebTransport) generateRequestID() json.RawMessage {
	return json.RawMessage(strconv.Quote("web_" + uuid.NewString()))
}
