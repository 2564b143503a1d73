// Package stdio implements line delimited JSON-RPC transport over a reader and a writer
package stdio

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/mcp/transport"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/moodlemcp/mcp/transport", "stdio")

// MaxMessageSize is the largest accepted message
const MaxMessageSize = 16 * 1024 * 1024

// Transport reads one message per line and writes one response per line.
// Messages are handled concurrently, responses are written in completion order.
type Transport struct {
	in  io.Reader
	out io.Writer

	lock sync.Mutex
	wg   sync.WaitGroup
}

// New returns a transport, usually for os.Stdin and os.Stdout
func New(in io.Reader, out io.Writer) *Transport {
	return &Transport{in: in, out: out}
}

// Serve reads messages until EOF or the context is done,
// and waits for the messages in flight.
// When the context is done, the input is closed if it is an io.Closer.
func (t *Transport) Serve(ctx context.Context, h transport.Handler) error {
	defer t.wg.Wait()

	lines := make(chan []byte)
	done := make(chan error, 1)
	go t.read(ctx, lines, done)

	for {
		select {
		case <-ctx.Done():
			t.closeInput(ctx)
			return nil
		case err := <-done:
			return err
		case msg := <-lines:
			if ctx.Err() != nil {
				t.closeInput(ctx)
				return nil
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				if res := h.Handle(ctx, msg); res != nil {
					t.write(ctx, res)
				}
			}()
		}
	}
}

func (t *Transport) read(ctx context.Context, lines chan<- []byte, done chan<- error) {
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg := make([]byte, len(line))
		copy(msg, line)

		select {
		case lines <- msg:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil {
		done <- errors.Wrap(err, "failed to read message")
		return
	}
	logger.ContextKV(ctx, xlog.DEBUG, "status", "eof")
	done <- nil
}

func (t *Transport) closeInput(ctx context.Context) {
	logger.ContextKV(ctx, xlog.DEBUG, "status", "cancelled")
	if c, ok := t.in.(io.Closer); ok {
		_ = c.Close()
	}
}

func (t *Transport) write(ctx context.Context, res []byte) {
	t.lock.Lock()
	defer t.lock.Unlock()

	_, err := t.out.Write(append(res, '\n'))
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "write", "err", err.Error())
	}
}
