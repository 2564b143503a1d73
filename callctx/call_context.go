// Package callctx carries per tool call identity through context.Context.
package callctx

import (
	"context"
	"strconv"
	"sync"

	"github.com/effective-security/x/values"
	"github.com/effective-security/xdb/pkg/flake"
)

// Metadata keys recorded while the call runs
const (
	MetaActivityID  = "activity_id"
	MetaModName     = "modname"
	MetaContentType = "content_type"
)

// CallContext is the context of a single tool call.
// It lives for the duration of the call and is never shared between calls.
type CallContext interface {
	GetCallID() string
	// ToolName returns the name of the invoked tool
	ToolName() string
	// GetMetadata retrieves metadata by key
	GetMetadata(key string) (value any, ok bool)
	// SetMetadata sets metadata by key
	SetMetadata(key string, value any)
}

type callContext struct {
	callID   string
	tool     string
	metadata sync.Map
}

func (c *callContext) GetCallID() string {
	return c.callID
}

func (c *callContext) ToolName() string {
	return c.tool
}

func (c *callContext) GetMetadata(key string) (value any, ok bool) {
	return c.metadata.Load(key)
}

func (c *callContext) SetMetadata(key string, value any) {
	c.metadata.Store(key, value)
}

// New returns CallContext, the call ID is generated when empty
func New(callID, tool string) CallContext {
	return &callContext{
		callID: values.StringsCoalesce(callID, NewCallID()),
		tool:   tool,
	}
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithCallContext returns a new context with CallContext value
func WithCallContext(ctx context.Context, callCtx CallContext) context.Context {
	return context.WithValue(ctx, keyContext, callCtx)
}

// GetCallContext retrieves the CallContext from the context
func GetCallContext(ctx context.Context) CallContext {
	if v, ok := ctx.Value(keyContext).(CallContext); ok {
		return v
	}
	return nil
}

// GetCallID retrieves the call ID from the provided context.
// If the context does not contain a CallContext, it returns an empty string.
func GetCallID(ctx context.Context) string {
	if v, ok := ctx.Value(keyContext).(CallContext); ok {
		return v.GetCallID()
	}
	return ""
}

// NewCallID generates a new call ID using the flake ID generator.
func NewCallID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}
