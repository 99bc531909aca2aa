package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ToolHandler executes one tool call.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

// ServerInfo identifies the server in initialize responses.
type ServerInfo struct {
	Name            string             `json:"name"`
	Version         string             `json:"version"`
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

// ServerCapabilities advertises what the server supports.
type ServerCapabilities struct {
	Tools   bool `json:"tools"`
	Logging bool `json:"logging"`
}

// Server is a tools-only MCP server. Tools are registered once at startup;
// the registry is still guarded because HandleMessage runs concurrently.
type Server struct {
	info ServerInfo

	tools        map[string]*ToolDefinition
	toolHandlers map[string]ToolHandler
	toolsMu      sync.RWMutex

	callTimeout time.Duration
	logger      *zap.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCallTimeout bounds each tool call. Zero means no bound beyond the
// request context. Generation calls block for the whole poll, so any bound
// must exceed the poll timeout.
func WithCallTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.callTimeout = d }
}

// NewServer creates an MCP server.
func NewServer(name, version string, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		info: ServerInfo{
			Name:            name,
			Version:         version,
			ProtocolVersion: MCPVersion,
			Capabilities: ServerCapabilities{
				Tools:   true,
				Logging: true,
			},
		},
		tools:        make(map[string]*ToolDefinition),
		toolHandlers: make(map[string]ToolHandler),
		logger:       logger.With(zap.String("component", "mcp_server")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetServerInfo returns the server identity.
func (s *Server) GetServerInfo() ServerInfo {
	return s.info
}

// RegisterTool adds a tool to the registry.
func (s *Server) RegisterTool(tool *ToolDefinition, handler ToolHandler) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}
	if handler == nil {
		return fmt.Errorf("tool handler is required")
	}

	s.toolsMu.Lock()
	defer s.toolsMu.Unlock()

	s.tools[tool.Name] = tool
	s.toolHandlers[tool.Name] = handler

	s.logger.Info("tool registered", zap.String("name", tool.Name))
	return nil
}

// ListTools returns every registered tool.
func (s *Server) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	s.toolsMu.RLock()
	defer s.toolsMu.RUnlock()

	result := make([]ToolDefinition, 0, len(s.tools))
	for _, tool := range s.tools {
		result = append(result, *tool)
	}
	return result, nil
}

// CallTool invokes a registered tool by name.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	s.toolsMu.RLock()
	handler, ok := s.toolHandlers[name]
	s.toolsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}

	s.logger.Debug("calling tool", zap.String("name", name))

	callCtx := ctx
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	result, err := handler(callCtx, args)
	if err != nil {
		s.logger.Error("tool call failed",
			zap.String("name", name),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("tool call succeeded", zap.String("name", name))
	return result, nil
}

// HandleMessage processes one JSON-RPC message and returns the response, or
// nil for notifications.
func (s *Server) HandleMessage(ctx context.Context, msg *MCPMessage) (*MCPMessage, error) {
	if msg == nil {
		return NewMCPError(nil, ErrorCodeInvalidRequest, "empty message", nil), nil
	}

	s.logger.Debug("handling message",
		zap.String("method", msg.Method),
		zap.Any("id", msg.ID),
	)

	// Notifications carry no ID and get no response.
	if msg.ID == nil {
		s.handleNotification(msg)
		return nil, nil
	}

	result, mcpErr := s.dispatch(ctx, msg.Method, msg.Params)
	if mcpErr != nil {
		return &MCPMessage{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error:   mcpErr,
		}, nil
	}

	return NewMCPResponse(msg.ID, result), nil
}

func (s *Server) handleNotification(msg *MCPMessage) {
	switch msg.Method {
	case "notifications/initialized":
		s.logger.Info("client initialized notification received")
	default:
		s.logger.Debug("unhandled notification", zap.String("method", msg.Method))
	}
}

func (s *Server) dispatch(ctx context.Context, method string, params map[string]any) (any, *MCPError) {
	switch method {
	case "initialize":
		return s.handleInitialize()
	case "tools/list":
		return s.handleToolsList(ctx)
	case "tools/call":
		return s.handleToolsCall(ctx, params)
	default:
		return nil, &MCPError{
			Code:    ErrorCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", method),
		}
	}
}

func (s *Server) handleInitialize() (any, *MCPError) {
	return map[string]any{
		"protocolVersion": MCPVersion,
		"capabilities":    s.info.Capabilities,
		"serverInfo": map[string]any{
			"name":    s.info.Name,
			"version": s.info.Version,
		},
	}, nil
}

func (s *Server) handleToolsList(ctx context.Context) (any, *MCPError) {
	tools, err := s.ListTools(ctx)
	if err != nil {
		return nil, &MCPError{Code: ErrorCodeInternalError, Message: err.Error()}
	}
	return map[string]any{"tools": tools}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params map[string]any) (any, *MCPError) {
	name, _ := params["name"].(string)
	if name == "" {
		return nil, &MCPError{Code: ErrorCodeInvalidParams, Message: "missing required parameter: name"}
	}

	// Arguments may be absent for tools without parameters.
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return nil, &MCPError{Code: ErrorCodeInternalError, Message: err.Error()}
	}
	return result, nil
}

// HandleHTTP serves the MCP protocol over a single HTTP endpoint. Each POST
// body is one JSON-RPC message.
func (s *Server) HandleHTTP(w http.ResponseWriter, r *http.Request) {
	var msg MCPMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeMessage(w, NewMCPError(nil, ErrorCodeParseError, "invalid JSON-RPC message", nil))
		return
	}

	resp, err := s.HandleMessage(r.Context(), &msg)
	if err != nil {
		writeMessage(w, NewMCPError(msg.ID, ErrorCodeInternalError, err.Error(), nil))
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeMessage(w, resp)
}

func writeMessage(w http.ResponseWriter, msg *MCPMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		return
	}
}
