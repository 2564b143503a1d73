package httptransport

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/mcp/transport"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/moodlemcp/mcp/transport", "httptransport")

// MaxBodySize is the largest accepted request body
const MaxBodySize = 16 * 1024 * 1024

// HTTPTransport implements a stateless HTTP transport for MCP,
// each POST carries one message and the response body carries the reply.
type HTTPTransport struct {
	endpoint string
	addr     string
	handler  transport.Handler

	mu     sync.Mutex
	server *http.Server
}

// NewHTTPTransport creates a new HTTP transport that serves the specified endpoint
func NewHTTPTransport(endpoint string, h transport.Handler) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		handler:  h,
		addr:     ":8080",
	}
}

// WithAddr sets the address to listen on
func (t *HTTPTransport) WithAddr(addr string) *HTTPTransport {
	t.addr = addr
	return t
}

// Handler returns the HTTP handler serving the endpoint
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(t.endpoint, t.handleRequest)
	return mux
}

// Start listens and serves until the context is done or Close is called
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	t.server = &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	server := t.server
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	logger.KV(xlog.INFO, "status", "listening", "addr", t.addr, "endpoint", t.endpoint)
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to serve")
	}
	return nil
}

// Close shuts down the server, waiting for requests in flight
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func (t *HTTPTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is supported", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "read_body", "err", err.Error())
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	res := t.handler.Handle(ctx, body)
	if res == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(res)
}
