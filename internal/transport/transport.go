// SPDX-License-Identifier: MIT

// Package transport serves feature extraction over WebSocket. A client
// sends one binary message per utterance (WAV or raw PCM16LE) and gets
// back one binary msgpack message holding the feature matrix, or a JSON
// text message describing the error.
package transport

import (
	"fmt"
	"time"
)

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Event summarises one handled request. The server sends one to its
// observer after every message.
type Event struct {
	ID         string        `json:"id"`
	RemoteAddr string        `json:"remote_addr"`
	Bytes      int           `json:"bytes"`
	Samples    int           `json:"samples"`
	Frames     int           `json:"frames"`
	Elapsed    time.Duration `json:"elapsed"`
	Err        string        `json:"error,omitempty"`
}

// ErrorReply is the JSON body of a text message sent in place of
// features when a request fails.
type ErrorReply struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// RemoteError is returned by Client when the server rejects a request.
type RemoteError struct {
	ID      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server rejected request %s: %s", e.ID, e.Message)
}
