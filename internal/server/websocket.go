package server

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// session is one console client connected over a websocket.
// Every text frame it sends is one command line; every reply is one text
// frame with the reply lines joined by '\n'.
type session struct {
	id          string
	conn        *websocket.Conn
	connectedAt time.Time
	closed      atomic.Bool

	readTimeout  time.Duration
	writeTimeout time.Duration

	// Write mutex to ensure thread-safe writes
	writeMu sync.Mutex

	linesReceived atomic.Uint64
	repliesSent   atomic.Uint64
}

func newSession(conn *websocket.Conn, config Config) *session {
	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(config.MaxMessageSize)
	}
	return &session{
		id:           uuid.New().String(),
		conn:         conn,
		connectedAt:  time.Now(),
		readTimeout:  config.ReadTimeout,
		writeTimeout: config.WriteTimeout,
	}
}

func (s *session) ID() string {
	return s.id
}

// receive blocks until the client sends a command line.
func (s *session) receive() (string, error) {
	if s.closed.Load() {
		return "", ErrSessionClosed
	}

	if s.readTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	messageType, data, err := s.conn.ReadMessage()
	if err != nil {
		return "", errors.Wrap(err, "failed to read message")
	}
	if messageType != websocket.TextMessage {
		return "", errors.New("expected text message for console line")
	}

	s.linesReceived.Add(1)
	return strings.TrimSpace(string(data)), nil
}

func (s *session) send(lines []string) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(strings.Join(lines, "\n"))); err != nil {
		return errors.Wrap(err, "failed to write message")
	}

	s.repliesSent.Add(1)
	return nil
}

// close sends a close frame and drops the connection. It is idempotent.
func (s *session) close(reason string) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	s.writeMu.Unlock()

	return errors.Wrap(s.conn.Close(), "failed to close connection")
}
