package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// methodHandler handles one entry of the dispatch table
type methodHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Server represents an MCP server.
//
// Tools and resources must be registered before the server starts serving;
// after that the server holds no mutable state and may be used from any
// number of goroutines.
type Server struct {
	name             string
	version          string
	description      string
	tools            map[string]*Tool
	toolHandlers     map[string]ToolHandler
	toolOrder        []string
	resources        map[string]*Resource
	resourceHandlers map[string]ResourceHandler
	resourceOrder    []string
	methods          map[string]methodHandler
	middlewares      []MiddlewareFunc
	logger           *slog.Logger
}

// NewServer creates a new MCP server
func NewServer(name, version string) *Server {
	s := &Server{
		name:             name,
		version:          version,
		tools:            make(map[string]*Tool),
		toolHandlers:     make(map[string]ToolHandler),
		resources:        make(map[string]*Resource),
		resourceHandlers: make(map[string]ResourceHandler),
		logger:           slog.Default(),
	}

	s.methods = map[string]methodHandler{
		MethodInitialize:     s.handleInitialize,
		MethodPing:           s.handlePing,
		MethodToolsList:      s.handleToolsList,
		MethodToolsCall:      s.handleToolsCall,
		MethodResourcesList:  s.handleResourcesList,
		MethodResourcesRead:  s.handleResourcesRead,
		MethodNotifyInit:     s.handleNotification,
		MethodNotifyCanceled: s.handleNotification,
	}

	return s
}

// Name returns the server name
func (s *Server) Name() string { return s.name }

// Version returns the server version
func (s *Server) Version() string { return s.version }

// Description returns the human readable server description
func (s *Server) Description() string { return s.description }

// SetLogger sets a custom logger
func (s *Server) SetLogger(logger *slog.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Logger returns the server logger
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// SetDescription sets the description reported by the HTTP info endpoint
func (s *Server) SetDescription(description string) *Server {
	s.description = description
	return s
}

// AddTool registers a tool and its handler
func (s *Server) AddTool(tool Tool, handler ToolHandler) *Server {
	if _, exists := s.tools[tool.Name]; !exists {
		s.toolOrder = append(s.toolOrder, tool.Name)
	}
	s.tools[tool.Name] = &tool
	s.toolHandlers[tool.Name] = handler
	return s
}

// AddResource registers a resource and its handler
func (s *Server) AddResource(resource Resource, handler ResourceHandler) *Server {
	if _, exists := s.resources[resource.URI]; !exists {
		s.resourceOrder = append(s.resourceOrder, resource.URI)
	}
	s.resources[resource.URI] = &resource
	s.resourceHandlers[resource.URI] = handler
	return s
}

// Tools returns registered tools in registration order
func (s *Server) Tools() []*Tool {
	tools := make([]*Tool, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		tools = append(tools, s.tools[name])
	}
	return tools
}

// Resources returns registered resources in registration order
func (s *Server) Resources() []*Resource {
	resources := make([]*Resource, 0, len(s.resourceOrder))
	for _, uri := range s.resourceOrder {
		resources = append(resources, s.resources[uri])
	}
	return resources
}

// Capabilities reports what the server offers, based on what is registered
func (s *Server) Capabilities() ServerCapabilities {
	var caps ServerCapabilities
	if len(s.tools) > 0 {
		caps.Tools = &ToolsCapability{}
	}
	if len(s.resources) > 0 {
		caps.Resources = &ResourcesCapability{}
	}
	return caps
}

// HandleMessage decodes a raw JSON-RPC message and processes it.
//
// It returns nil for notifications, which must not be answered. Every other
// input, including malformed JSON, produces a response.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) *Response {
	raw = bytes.TrimSpace(raw)

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		s.logger.Debug("undecodable message", "error", err)
		if json.Valid(raw) {
			return errorResponse(nil, NewError(CodeInvalidRequest, "Invalid Request"))
		}
		return errorResponse(nil, NewError(CodeParseError, "Parse error"))
	}

	if rpcErr := validateRequest(&req); rpcErr != nil {
		return errorResponse(req.ID, rpcErr)
	}

	response := s.HandleRequest(ctx, &req)
	if req.IsNotification() {
		return nil
	}
	return response
}

// HandleRequest processes a decoded request through the middleware chain.
// A panic anywhere in the chain becomes an Internal error response.
func (s *Server) HandleRequest(ctx context.Context, req *Request) (response *Response) {
	defer s.recoverPanic(req, &response)

	handler := RequestHandler(s.dispatch)
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}
	return handler(ctx, req)
}

// recoverPanic turns a panic into an Internal error response for req
func (s *Server) recoverPanic(req *Request, response **Response) {
	if r := recover(); r != nil {
		s.logger.Error("panic while handling request",
			"method", req.Method,
			"panic", r,
			"stack", string(debug.Stack()),
		)
		*response = errorResponse(req.ID, NewError(CodeInternalError, "Internal error").WithData(fmt.Sprint(r)))
	}
}

// dispatch looks the method up in the dispatch table. Handler panics are
// recovered here so middleware still sees a response.
func (s *Server) dispatch(ctx context.Context, req *Request) (response *Response) {
	defer s.recoverPanic(req, &response)

	handler, ok := s.methods[req.Method]
	if !ok {
		return errorResponse(req.ID, errMethodNotFound(req.Method))
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		rpcErr := toError(err)
		if rpcErr.Code == CodeInternalError {
			s.logger.Error("request failed", "method", req.Method, "error", err)
		}
		return errorResponse(req.ID, rpcErr)
	}

	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      req.ID,
		Result:  result,
	}
}

func errorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   err,
	}
}

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    s.Capabilities(),
		ServerInfo: Implementation{
			Name:    s.name,
			Version: s.version,
		},
	}, nil
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return struct{}{}, nil
}

func (s *Server) handleNotification(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return struct{}{}, nil
}

func (s *Server) handleToolsList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return ListToolsResult{Tools: s.Tools()}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	callParams, err := decodeToolsCallParams(params)
	if err != nil {
		return nil, err
	}

	handler, exists := s.toolHandlers[callParams.Name]
	if !exists {
		return nil, errToolNotFound(callParams.Name)
	}

	result, err := handler(ctx, callParams.Arguments)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &CallToolResult{}
	}
	if result.Content == nil {
		result.Content = []Content{}
	}
	return result, nil
}

func (s *Server) handleResourcesList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return ListResourcesResult{Resources: s.Resources()}, nil
}

func (s *Server) handleResourcesRead(ctx context.Context, params json.RawMessage) (interface{}, error) {
	readParams, err := decodeResourcesReadParams(params)
	if err != nil {
		return nil, err
	}

	handler, exists := s.resourceHandlers[readParams.URI]
	if !exists {
		return nil, errResourceNotFound(readParams.URI)
	}

	contents, err := handler(ctx, readParams.URI)
	if err != nil {
		return nil, err
	}
	if contents.URI == "" {
		contents.URI = readParams.URI
	}
	if contents.MimeType == "" {
		contents.MimeType = s.resources[readParams.URI].MimeType
	}

	return ReadResourceResult{Contents: []ResourceContents{contents}}, nil
}
