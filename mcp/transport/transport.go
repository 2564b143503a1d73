// Package transport defines the contract between the MCP server and its transports
package transport

import "context"

// Handler processes one JSON-RPC message.
// It returns the encoded response, or nil when no response is expected.
type Handler interface {
	Handle(ctx context.Context, msg []byte) []byte
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, msg []byte) []byte

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, msg []byte) []byte {
	return f(ctx, msg)
}
