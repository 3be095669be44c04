package mcp

import (
	"context"
	"encoding/json"
)

// ProtocolVersion is the MCP revision this server speaks
const ProtocolVersion = "2024-11-05"

// JSONRPCVersion is the only accepted value of the jsonrpc envelope field
const JSONRPCVersion = "2.0"

// Method names of the dispatch table
const (
	MethodInitialize     = "initialize"
	MethodPing           = "ping"
	MethodToolsList      = "tools/list"
	MethodToolsCall      = "tools/call"
	MethodResourcesList  = "resources/list"
	MethodResourcesRead  = "resources/read"
	MethodNotifyInit     = "notifications/initialized"
	MethodNotifyCanceled = "notifications/cancelled"
)

// JSONSchema represents a JSON Schema definition
type JSONSchema struct {
	Type        string                `json:"type,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty"`
	Description string                `json:"description,omitempty"`
	Enum        []interface{}         `json:"enum,omitempty"`
}

// Tool represents an MCP tool definition
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// Meta is the free-form _meta object hosts read widget hints from
type Meta map[string]interface{}

// Resource represents an MCP resource definition
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Meta        Meta   `json:"_meta,omitempty"`
}

// ResourceContents is one entry of a resources/read result
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
	Meta     Meta   `json:"_meta,omitempty"`
}

// Content is a single content block of a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextContent creates a text content block
func TextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// CallToolResult is the result of tools/call.
//
// IsError marks a handled application error: the call itself succeeded and
// the host should show the text to the user.
type CallToolResult struct {
	Content           []Content   `json:"content"`
	StructuredContent interface{} `json:"structuredContent,omitempty"`
	Meta              Meta        `json:"_meta,omitempty"`
	IsError           bool        `json:"isError,omitempty"`
}

// Request represents a JSON-RPC request or notification.
//
// ID is kept raw so it is echoed back byte for byte; it is nil for
// notifications.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response represents a JSON-RPC response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Implementation names a server
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the result of initialize
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
}

// ListToolsResult is the result of tools/list
type ListToolsResult struct {
	Tools []*Tool `json:"tools"`
}

// ListResourcesResult is the result of resources/list
type ListResourcesResult struct {
	Resources []*Resource `json:"resources"`
}

// ReadResourceResult is the result of resources/read
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// ServerCapabilities represents server capabilities
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// ToolHandler handles a tools/call for one tool.
//
// Returning an error produces a protocol-level error response; application
// errors belong in a CallToolResult with IsError set.
type ToolHandler func(ctx context.Context, arguments json.RawMessage) (*CallToolResult, error)

// ResourceHandler reads the contents of one resource
type ResourceHandler func(ctx context.Context, uri string) (ResourceContents, error)
