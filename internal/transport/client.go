// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fbank/internal/output"
)

// Client sends utterances to a Server. Requests on one Client are
// serialised.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to a server URL such as ws://127.0.0.1:8765/fbank.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: %w (status %s)", url, err, resp.Status)
		}
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Extract sends one utterance, WAV or raw PCM16LE, and waits for its
// features. A server-side failure is returned as *RemoteError.
func (c *Client) Extract(ctx context.Context, data []byte) (output.Features, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, _ := ctx.Deadline() // zero clears any previous deadline
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return output.Features{}, err
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return output.Features{}, err
	}

	// Unblock the read if ctx is cancelled without a deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return output.Features{}, fmt.Errorf("sending audio: %w", err)
	}

	messageType, r, err := c.conn.NextReader()
	if err != nil {
		if ctx.Err() != nil {
			return output.Features{}, ctx.Err()
		}
		return output.Features{}, fmt.Errorf("reading reply: %w", err)
	}

	switch messageType {
	case websocket.BinaryMessage:
		feats, err := output.Decode(r, output.FormatMsgpack)
		if err != nil {
			return output.Features{}, fmt.Errorf("decoding features: %w", err)
		}
		return feats, nil
	case websocket.TextMessage:
		var reply ErrorReply
		if err := json.NewDecoder(r).Decode(&reply); err != nil {
			return output.Features{}, fmt.Errorf("decoding error reply: %w", err)
		}
		return output.Features{}, &RemoteError{ID: reply.ID, Message: reply.Error}
	default:
		return output.Features{}, fmt.Errorf("unexpected message type %d", messageType)
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
