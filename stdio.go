package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// StdioTransport exchanges newline-delimited JSON-RPC messages over a
// reader/writer pair, normally the process stdin and stdout
type StdioTransport struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex

	lines     chan readResult
	startRead sync.Once
}

type readResult struct {
	line []byte
	err  error
}

// NewStdioTransport creates a transport reading from r and writing to w
func NewStdioTransport(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{
		reader: bufio.NewReader(r),
		writer: w,
		lines:  make(chan readResult),
	}
}

// Receive returns the next non-blank line, or ctx.Err() once ctx is done.
// Reads happen on a single background goroutine, so a line that arrives after
// cancellation is kept for the next call.
func (t *StdioTransport) Receive(ctx context.Context) (json.RawMessage, error) {
	t.startRead.Do(func() {
		go t.readLines()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r, ok := <-t.lines:
		if !ok {
			return nil, io.EOF
		}
		return r.line, r.err
	}
}

// readLines feeds t.lines until the reader fails, then closes it
func (t *StdioTransport) readLines() {
	defer close(t.lines)

	for {
		line, err := t.reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			t.lines <- readResult{line: line}
		}
		if err != nil {
			t.lines <- readResult{err: err}
			return
		}
	}
}

// Send writes response as a single line
func (t *StdioTransport) Send(ctx context.Context, response *Response) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.writer.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// Run serves newline-delimited JSON-RPC on stdin and stdout until stdin is
// closed or ctx is done
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.logger.Info("starting stdio transport", "server", s.name, "version", s.version)
	return s.Serve(ctx, NewStdioTransport(stdin, stdout))
}
