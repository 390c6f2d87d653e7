// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     client
// Description: WebSocket client for streaming responses
// License:     MIT
// ============================================================================

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSClient streams responses from a WebSocket chat gateway. It satisfies
// StreamingResponder; Respond collects the stream into one string.
type WSClient struct {
	mu    sync.Mutex
	url   string
	model string
	conn  *websocket.Conn
}

// WSMessage is the envelope for all gateway traffic.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSChatPayload carries an outgoing conversation.
type WSChatPayload struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// WSChunkPayload carries one incoming response fragment.
type WSChunkPayload struct {
	Delta string `json:"delta,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewWSClient creates a client for the given gateway URL.
func NewWSClient(url, model string) *WSClient {
	return &WSClient{url: url, model: model}
}

// Connect establishes the connection. Called lazily by the respond methods.
func (c *WSClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *WSClient) connectLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("chat: connect %s: %w", c.url, err)
	}
	c.conn = conn
	return nil
}

// Close closes the connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Respond sends the conversation and returns the complete reply.
func (c *WSClient) Respond(ctx context.Context, messages []Message) (string, error) {
	var b strings.Builder
	err := c.RespondStream(ctx, messages, func(chunk string, done bool) {
		b.WriteString(chunk)
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// RespondStream sends the conversation and delivers the reply fragment by
// fragment. One stream runs at a time per client.
func (c *WSClient) RespondStream(ctx context.Context, messages []Message, onChunk func(chunk string, done bool)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(WSChatPayload{Model: c.model, Messages: messages})
	if err != nil {
		return fmt.Errorf("chat: marshal payload: %w", err)
	}
	if err := c.conn.WriteJSON(WSMessage{Type: "chat", Payload: payload}); err != nil {
		c.dropConn()
		return fmt.Errorf("chat: send: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	}

	for {
		select {
		case <-ctx.Done():
			c.dropConn()
			return ctx.Err()
		default:
		}

		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.dropConn()
			return fmt.Errorf("chat: read: %w", err)
		}

		switch msg.Type {
		case "chunk":
			var chunk WSChunkPayload
			if err := json.Unmarshal(msg.Payload, &chunk); err != nil {
				return fmt.Errorf("chat: decode chunk: %w", err)
			}
			if chunk.Error != "" {
				return fmt.Errorf("chat: gateway error: %s", chunk.Error)
			}
			onChunk(chunk.Delta, chunk.Done)
			if chunk.Done {
				return nil
			}
		case "error":
			return fmt.Errorf("chat: gateway error: %s", msg.Payload)
		default:
			// Ignore unknown message types.
		}
	}
}

// dropConn discards a connection whose stream state is unknown.
func (c *WSClient) dropConn() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
