// Package dispatch routes tool calls through validation to the tool logic,
// and returns results in a uniform envelope.
package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/callctx"
	"github.com/effective-security/moodlemcp/moodle"
	"github.com/effective-security/moodlemcp/pkg/metricskey"
	"github.com/effective-security/moodlemcp/resolver"
	"github.com/effective-security/moodlemcp/toolerr"
	"github.com/effective-security/moodlemcp/tools"
	"github.com/effective-security/moodlemcp/utils"
	"github.com/effective-security/moodlemcp/validation"
	"github.com/effective-security/xlog"
	"github.com/tidwall/sjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/moodlemcp", "dispatch")

// Callback receives tool call events.
// Input is JSON of the call arguments with the token removed.
type Callback interface {
	OnToolStart(ctx context.Context, tool, input string)
	OnToolEnd(ctx context.Context, tool, input, output string)
	OnToolError(ctx context.Context, tool, input string, err error)
	OnToolNotFound(ctx context.Context, tool string)
}

// ClientFactory returns a new upstream client bound to the token
type ClientFactory func(token string) moodle.API

// NewClientFactory returns a factory of Moodle clients for the site
func NewClientFactory(siteURL string, httpClient *http.Client) ClientFactory {
	return func(token string) moodle.API {
		return moodle.New(siteURL, token).WithHTTPClient(httpClient)
	}
}

// Result of a tool call
type Result struct {
	// Text is the string result, or JSON of the structured result
	Text string
	// Data is the structured result, nil for string results
	Data any
}

type handler func(ctx context.Context, api moodle.API, params any) (any, error)

// Dispatcher is safe for concurrent use, it holds no per call state
type Dispatcher struct {
	registry  *tools.Registry
	validator *validation.Validator
	resolver  *resolver.Resolver
	newClient ClientFactory
	callback  Callback
	handlers  map[string]handler
}

// Option configures the dispatcher
type Option func(*Dispatcher)

// WithRegistry sets the tool registry, tools.Default() is used otherwise
func WithRegistry(r *tools.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = r
	}
}

// WithResolver sets the activity resolver
func WithResolver(r *resolver.Resolver) Option {
	return func(d *Dispatcher) {
		d.resolver = r
	}
}

// WithCallback sets the callback
func WithCallback(cb Callback) Option {
	return func(d *Dispatcher) {
		d.callback = cb
	}
}

// New returns a dispatcher creating upstream clients with the factory
func New(factory ClientFactory, opts ...Option) (*Dispatcher, error) {
	if factory == nil {
		return nil, errors.New("client factory is required")
	}
	d := &Dispatcher{
		registry:  tools.Default(),
		resolver:  resolver.New(),
		newClient: factory,
		callback:  noop{},
	}
	for _, opt := range opts {
		opt(d)
	}

	v, err := validation.New(d.registry)
	if err != nil {
		return nil, err
	}
	d.validator = v
	d.handlers = map[string]handler{
		tools.GetCourses:             getCourses,
		tools.GetCourseContents:      getCourseContents,
		tools.GetCourseActivities:    getCourseActivities,
		tools.GetPageModuleContent:   getPageModuleContent,
		tools.GetResourceFileContent: getResourceFileContent,
		tools.GetActivityDetails:     d.getActivityDetails,
		tools.FetchActivityContent:   d.fetchActivityContent,
	}
	for _, name := range d.registry.Names() {
		if d.handlers[name] == nil {
			return nil, errors.Errorf("handler for tool %q is not implemented", name)
		}
	}
	return d, nil
}

// Registry returns the tool registry
func (d *Dispatcher) Registry() *tools.Registry {
	return d.registry
}

// Dispatch validates the arguments and runs the tool.
// Returned errors are always *toolerr.Error.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, args map[string]any) (*Result, error) {
	def, ok := d.registry.Get(toolName)
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, toolName)
		d.callback.OnToolNotFound(ctx, toolName)
		return nil, toolerr.MethodNotFound(toolName)
	}

	cc := callctx.GetCallContext(ctx)
	if cc == nil {
		cc = callctx.New("", def.Name)
		ctx = callctx.WithCallContext(ctx, cc)
	}

	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, def.Name)

	input := RedactArgs(args)
	d.callback.OnToolStart(ctx, def.Name, input)

	vr := d.validator.Validate(def.Name, args)
	if !vr.Valid {
		metricskey.StatsToolCallsInvalid.IncrCounter(1, def.Name)
		d.callback.OnToolError(ctx, def.Name, input, vr.Err)
		return nil, vr.Err
	}

	value, err := d.run(ctx, def.Name, d.newClient(vr.Token), vr.Params)
	if err != nil {
		te := toolerr.Ensure(def.Name, err)
		metricskey.StatsToolCallsFailed.IncrCounter(1, def.Name, string(te.Kind))
		logger.ContextKV(ctx, xlog.ERROR,
			"call_id", cc.GetCallID(),
			"tool", def.Name,
			"kind", te.Kind,
			"err", te.Error(),
		)
		d.callback.OnToolError(ctx, def.Name, input, te)
		return nil, te
	}

	res := wrap(value)
	metricskey.StatsToolCallsSucceeded.IncrCounter(1, def.Name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"call_id", cc.GetCallID(),
		"tool", def.Name,
		"status", "succeeded",
		"elapsed", time.Since(started).String(),
		"size", len(res.Text),
	)
	d.callback.OnToolEnd(ctx, def.Name, input, res.Text)
	return res, nil
}

func (d *Dispatcher) run(ctx context.Context, toolName string, api moodle.API, params any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = toolerr.Internal(toolName, errors.Errorf("panic: %v", r))
		}
	}()
	return d.handlers[toolName](ctx, api, params)
}

// wrap returns strings as is, and other values as indented JSON
func wrap(value any) *Result {
	switch v := value.(type) {
	case string:
		return &Result{Text: v}
	default:
		return &Result{Text: utils.ToJSONIndent(v), Data: v}
	}
}

// RedactArgs returns JSON of the arguments without the token
func RedactArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	js, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	redacted, err := sjson.DeleteBytes(js, tools.TokenField)
	if err != nil {
		return "{}"
	}
	return string(redacted)
}

type noop struct{}

func (noop) OnToolStart(context.Context, string, string) {}
func (noop) OnToolEnd(context.Context, string, string, string) {}
func (noop) OnToolError(context.Context, string, string, error) {}
func (noop) OnToolNotFound(context.Context, string) {}
