package httptransport_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/moodlemcp/mcp/transport"
	"github.com/effective-security/moodlemcp/mcp/transport/httptransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	t.Parallel()

	h := transport.HandlerFunc(func(_ context.Context, msg []byte) []byte {
		if bytes.Contains(msg, []byte("notifications/")) {
			return nil
		}
		return []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)
	})
	tr := httptransport.NewHTTPTransport("/mcp", h).WithAddr("127.0.0.1:0")
	srv := httptest.NewServer(tr.Handler())
	defer srv.Close()

	res, err := http.Post(srv.URL+"/mcp", "application/json", bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	_ = res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, string(body))

	res, err = http.Post(srv.URL+"/mcp", "application/json", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	res, err = http.Get(srv.URL + "/mcp")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, err = http.Post(srv.URL+"/other", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestStartClose(t *testing.T) {
	t.Parallel()

	h := transport.HandlerFunc(func(context.Context, []byte) []byte { return nil })
	tr := httptransport.NewHTTPTransport("/mcp", h).WithAddr("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tr.Start(ctx)
	}()
	cancel()
	assert.NoError(t, <-done)
	assert.NoError(t, tr.Close())
}
