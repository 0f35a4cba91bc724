// Package debugserver streams world snapshots to debug viewers over
// WebSocket.
package debugserver

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

	"github.com/0x5844/physics-2d/internal/engine"
	"github.com/0x5844/physics-2d/internal/log"
)

const (
	writeWait       = 5 * time.Second
	shutdownTimeout = 2 * time.Second
)

// Source hands out the latest snapshot. engine.Engine implements it.
type Source interface {
	Snapshot() engine.Snapshot
}

type session struct {
	id   uuid.UUID
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (s *session) close(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	_ = s.conn.Close()
}

type Server struct {
	addr     string
	interval time.Duration
	source   Source
	logger   log.Log
	upgrader websocket.Upgrader

	mu        sync.Mutex
	sessions  map[uuid.UUID]*session
	listener  net.Listener
	ready     chan struct{}
	readyOnce sync.Once
}

func New(addr string, interval time.Duration, source Source, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Server{
		addr:     addr,
		interval: interval,
		source:   source,
		logger:   logger.With(log.String("component", "debugserver")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[uuid.UUID]*session),
		ready:    make(chan struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	return mux
}

// Ready is closed once Run is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr is the listening address, nil before Ready.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run serves until ctx is done, then closes every stream with
// CloseGoingAway. It may be called again once it has returned.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("debugserver: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })

	// Streams outlive ctx until closeSessions has said goodbye.
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("debug server listening", log.String("addr", ln.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		s.closeSessions()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("debug server shutdown", log.Error(err))
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("debugserver: %w", err)
		}
		return nil

	case err := <-errc:
		return fmt.Errorf("debugserver: %w", err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Encode(s.source.Snapshot(), "")); err != nil {
		s.logger.Warn("snapshot encode failed", log.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	sess := s.open(conn)
	defer s.release(sess)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Viewers send nothing; the read loop only detects a closed connection.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.stream(ctx, sess); err != nil {
		s.logger.Debug("stream ended", log.String("session", sess.id.String()), log.Error(err))
	}
}

func (s *Server) stream(ctx context.Context, sess *session) error {
	snap := s.source.Snapshot()
	hello := Hello{
		Type:          "hello",
		Session:       sess.id.String(),
		RunID:         snap.RunID,
		UnitsToPixels: UnitsToPixels,
	}
	if err := sess.writeJSON(hello); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	lastStep := int64(-1)
	for {
		select {
		case <-ticker.C:
			snap := s.source.Snapshot()
			if snap.Step == lastStep {
				continue
			}
			lastStep = snap.Step
			if err := sess.writeJSON(Encode(snap, sess.id.String())); err != nil {
				return err
			}

		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) open(conn *websocket.Conn) *session {
	sess := &session{id: uuid.New(), conn: conn}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("viewer connected",
		log.String("session", sess.id.String()),
		log.String("remote", conn.RemoteAddr().String()),
		log.Int("sessions", n))
	return sess
}

func (s *Server) release(sess *session) {
	s.mu.Lock()
	_, ok := s.sessions[sess.id]
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	if ok {
		_ = sess.conn.Close()
		s.logger.Info("viewer disconnected", log.String("session", sess.id.String()))
	}
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close(websocket.CloseGoingAway, "server shutting down")
	}
}
