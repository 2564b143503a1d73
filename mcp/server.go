// Package mcp implements the MCP JSON-RPC 2.0 server exposing the Moodle tools.
//
// The server is transport agnostic: a transport passes each received message
// to Server.Handle and writes back the returned response.
// Notifications produce no response.
//
// Supported methods:
//   - initialize
//   - ping
//   - tools/list
//   - tools/call
//   - notifications/cancelled, other notifications are ignored
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/dispatch"
	"github.com/effective-security/moodlemcp/mcp/transport"
	"github.com/effective-security/moodlemcp/toolerr"
	"github.com/effective-security/xlog"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/moodlemcp", "mcp")

// ensure Server can be served by the transports
var _ transport.Handler = (*Server)(nil)

// JSONRPCVersion is the only supported version of the protocol
const JSONRPCVersion = "2.0"

// Methods
const (
	MethodInitialize        = "initialize"
	MethodPing              = "ping"
	MethodToolsList         = "tools/list"
	MethodToolsCall         = "tools/call"
	NotificationCancelled   = "notifications/cancelled"
	NotificationInitialized = "notifications/initialized"
)

var supportedProtocolVersions = []string{
	mcpgo.LATEST_PROTOCOL_VERSION,
	"2025-03-26",
	"2024-11-05",
}

// Request is a JSON-RPC request, or a notification when ID is empty
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if the request does not expect a response
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a JSON-RPC response
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error object of a JSON-RPC response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorData is set in RPCError.Data for tool errors
type ErrorData struct {
	Kind         toolerr.Kind `json:"kind"`
	UpstreamCode string       `json:"upstream_code,omitempty"`
}

// InitializeResult is returned on initialize
type InitializeResult struct {
	ProtocolVersion string               `json:"protocolVersion"`
	Capabilities    map[string]any       `json:"capabilities"`
	ServerInfo      mcpgo.Implementation `json:"serverInfo"`
	Instructions    string               `json:"instructions,omitempty"`
}

type methodHandler func(ctx context.Context, params json.RawMessage) (any, error)

// Server handles MCP messages
type Server struct {
	info       mcpgo.Implementation
	dispatcher *dispatch.Dispatcher
	tools      []mcpgo.Tool
	methods    map[string]methodHandler

	lock     sync.Mutex
	inflight map[string]context.CancelFunc
}

// NewServer returns a server for the dispatcher's tools
func NewServer(name, version string, d *dispatch.Dispatcher) *Server {
	s := &Server{
		info:       mcpgo.Implementation{Name: name, Version: version},
		dispatcher: d,
		inflight:   make(map[string]context.CancelFunc),
	}
	for _, def := range d.Registry().ListTools() {
		s.tools = append(s.tools, mcpgo.NewToolWithRawSchema(def.Name, def.Description, def.InputSchema))
	}
	s.methods = map[string]methodHandler{
		MethodInitialize: s.initialize,
		MethodPing:       s.ping,
		MethodToolsList:  s.listTools,
		MethodToolsCall:  s.callTool,
	}
	return s
}

// Handle processes a raw JSON-RPC message and returns the encoded response,
// or nil for notifications.
func (s *Server) Handle(ctx context.Context, msg []byte) []byte {
	msg = bytes.TrimSpace(msg)

	var req Request
	if len(msg) == 0 || msg[0] != '{' {
		return encode(errorResponse(nil, mcpgo.INVALID_REQUEST, "invalid request", nil))
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "parse", "err", err.Error())
		return encode(errorResponse(nil, mcpgo.PARSE_ERROR, "parse error", nil))
	}

	res := s.HandleRequest(ctx, &req)
	if res == nil {
		return nil
	}
	return encode(res)
}

// HandleRequest processes the request and returns the response,
// or nil for notifications.
func (s *Server) HandleRequest(ctx context.Context, req *Request) *Response {
	if req.IsNotification() {
		s.notify(ctx, req)
		return nil
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		return errorResponse(req.ID, mcpgo.INVALID_REQUEST, "invalid request", nil)
	}

	handler := s.methods[req.Method]
	if handler == nil {
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "method_not_found", "method", req.Method)
		return errorResponse(req.ID, mcpgo.METHOD_NOT_FOUND, "method not found: "+req.Method, nil)
	}

	key := string(req.ID)
	ctx, cancel := context.WithCancel(ctx)
	s.lock.Lock()
	if _, ok := s.inflight[key]; ok {
		s.lock.Unlock()
		cancel()
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "duplicate_id", "id", key)
		return errorResponse(req.ID, mcpgo.INVALID_REQUEST, "request id is already in use: "+key, nil)
	}
	s.inflight[key] = cancel
	s.lock.Unlock()

	defer func() {
		s.lock.Lock()
		delete(s.inflight, key)
		s.lock.Unlock()
		cancel()
	}()

	result, err := handler(ctx, req.Params)
	if err != nil {
		return toErrorResponse(req.ID, err)
	}
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      req.ID,
		Result:  result,
	}
}

func (s *Server) notify(ctx context.Context, req *Request) {
	logger.ContextKV(ctx, xlog.DEBUG, "notification", req.Method)
	if req.Method != NotificationCancelled {
		return
	}

	var params struct {
		RequestID json.RawMessage `json:"requestId"`
		Reason    string          `json:"reason"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || len(params.RequestID) == 0 {
		return
	}

	s.lock.Lock()
	cancel := s.inflight[string(params.RequestID)]
	s.lock.Unlock()
	if cancel != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"cancelled", string(params.RequestID),
			"reason", params.Reason,
		)
		cancel()
	}
}

func (s *Server) initialize(_ context.Context, params json.RawMessage) (any, error) {
	var req struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, toolerr.InvalidParams("invalid initialize params")
		}
	}

	version := mcpgo.LATEST_PROTOCOL_VERSION
	if slices.Contains(supportedProtocolVersions, req.ProtocolVersion) {
		version = req.ProtocolVersion
	}
	return &InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
		ServerInfo: s.info,
	}, nil
}

func (s *Server) ping(context.Context, json.RawMessage) (any, error) {
	return struct{}{}, nil
}

func (s *Server) listTools(context.Context, json.RawMessage) (any, error) {
	return &mcpgo.ListToolsResult{Tools: s.tools}, nil
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var req struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments,omitempty"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, toolerr.InvalidParams("invalid tools/call params: arguments must be an object")
	}
	if req.Name == "" {
		return nil, toolerr.InvalidParams("invalid tools/call params: name is required")
	}

	res, err := s.dispatcher.Dispatch(ctx, req.Name, req.Arguments)
	if err != nil {
		return nil, err
	}
	return mcpgo.NewToolResultText(res.Text), nil
}

func toErrorResponse(id json.RawMessage, err error) *Response {
	te, ok := toolerr.As(err)
	if !ok {
		return errorResponse(id, mcpgo.INTERNAL_ERROR, err.Error(), nil)
	}
	return errorResponse(id, te.Code(), te.Message, &ErrorData{
		Kind:         te.Kind,
		UpstreamCode: te.UpstreamCode,
	})
}

func errorResponse(id json.RawMessage, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func encode(res *Response) []byte {
	js, err := json.Marshal(res)
	if err != nil {
		logger.KV(xlog.ERROR, "reason", "marshal", "err", errors.WithStack(err))
		js, _ = json.Marshal(errorResponse(res.ID, mcpgo.INTERNAL_ERROR, "failed to encode response", nil))
	}
	return js
}
