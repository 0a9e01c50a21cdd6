// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fbank/internal/audio"
	"fbank/internal/log"
	"fbank/internal/output"
	"fbank/pkg/fbank"
)

// Endpoint paths served by Handler.
const (
	PathFeatures = "/fbank"
	PathHealth   = "/healthz"
)

const shutdownTimeout = 5 * time.Second

// ErrTextMessage is reported to clients that send a text frame.
var ErrTextMessage = errors.New("expected a binary message with wav or pcm16le audio")

// ServerOptions tunes a Server. Zero values select the defaults.
type ServerOptions struct {
	MaxMessageBytes int64         // Largest accepted message (default 16 MiB).
	WriteTimeout    time.Duration // Deadline for each reply (default 10s).
	CMVN            bool          // Mean and variance normalise each utterance.
	Observer        Transport     // Receives an Event per request; may be nil.
}

// Server answers feature extraction requests over WebSocket. One
// Extractor is shared by every connection.
type Server struct {
	extractor *fbank.Extractor
	opts      ServerOptions
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex
	closed    bool
}

// NewServer creates a Server around extractor.
func NewServer(extractor *fbank.Extractor, opts ServerOptions) *Server {
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 16 << 20
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		extractor: extractor,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Feature clients are not browsers
			},
		},
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(PathFeatures, s.handleWebSocket)
	mux.HandleFunc(PathHealth, s.handleHealth)
	return mux
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes every
// client and shuts the HTTP server down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("transport: serving features on ws://%s%s", ln.Addr(), PathFeatures)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Hijacked websocket connections are not tracked by Shutdown.
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// Close disconnects all clients and aborts in-flight extractions.
func (s *Server) Close() error {
	s.cancel()

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for conn := range s.clients {
		conn.Close()
	}
	clear(s.clients)
	return nil
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *Server) addClient(conn *websocket.Conn) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.closed {
		return false
	}
	s.clients[conn] = struct{}{}
	return true
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	conn.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"dim":     s.extractor.Dim(),
		"clients": s.Clients(),
	})
}

// handleWebSocket upgrades the connection and answers messages in order
// until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("transport: upgrade error: %v", err)
		return
	}
	if !s.addClient(conn) {
		conn.Close()
		return
	}
	defer s.removeClient(conn)
	conn.SetReadLimit(s.opts.MaxMessageBytes)
	log.Debugf("transport: client %s connected, total: %d", r.RemoteAddr, s.Clients())

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("transport: client %s: %v", r.RemoteAddr, err)
			}
			log.Debugf("transport: client %s disconnected", r.RemoteAddr)
			return
		}
		if err := s.handleMessage(conn, r.RemoteAddr, messageType, data); err != nil {
			log.Warnf("transport: replying to %s: %v", r.RemoteAddr, err)
			return
		}
	}
}

func (s *Server) handleMessage(conn *websocket.Conn, remote string, messageType int, data []byte) error {
	start := time.Now()
	ev := Event{
		ID:         uuid.NewString(),
		RemoteAddr: remote,
		Bytes:      len(data),
	}

	feats, samples, err := s.process(ev.ID, messageType, data)
	ev.Samples = samples
	ev.Elapsed = time.Since(start)

	if err := conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
		return err
	}
	if err != nil {
		ev.Err = err.Error()
		s.observe(ev)
		return conn.WriteJSON(ErrorReply{ID: ev.ID, Error: err.Error()})
	}
	ev.Frames = feats.Frames
	s.observe(ev)

	w, err := conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if err := output.Encode(w, output.FormatMsgpack, feats); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *Server) process(id string, messageType int, data []byte) (output.Features, int, error) {
	if messageType != websocket.BinaryMessage {
		return output.Features{}, 0, ErrTextMessage
	}
	rate := int(s.extractor.Options().Frame.SampleFreq)
	samples, _, err := audio.Decode(data, rate)
	if err != nil {
		return output.Features{}, 0, err
	}
	m, err := s.extractor.ExtractContext(s.ctx, samples)
	if err != nil {
		return output.Features{}, len(samples), err
	}
	if s.opts.CMVN {
		m.CMVN()
	}
	return output.NewFeatures(id, m), len(samples), nil
}

func (s *Server) observe(ev Event) {
	if s.opts.Observer == nil {
		return
	}
	if err := s.opts.Observer.Send(ev); err != nil {
		log.Debugf("transport: observer: %v", err)
	}
}
