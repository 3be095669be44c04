package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Transport moves raw JSON-RPC messages in and responses out.
//
// Receive returns io.EOF once the peer is gone. Implementations must allow
// Send to be called concurrently with Receive.
type Transport interface {
	Receive(ctx context.Context) (json.RawMessage, error)
	Send(ctx context.Context, response *Response) error
}

// Serve reads messages from t until the peer disconnects or ctx is done,
// answering each one in arrival order
func (s *Server) Serve(ctx context.Context, t Transport) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := t.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receiving message: %w", err)
		}

		response := s.HandleMessage(ctx, raw)
		if response == nil {
			continue
		}

		if err := t.Send(ctx, response); err != nil {
			return fmt.Errorf("sending response: %w", err)
		}
	}
}
