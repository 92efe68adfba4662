package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/sandbox/internal/core/observability/log"
)

// ConsolePath is where the websocket endpoint is mounted.
const ConsolePath = "/console"

// Submitter executes a console line and returns its reply.
type Submitter interface {
	Submit(ctx context.Context, line string) ([]string, error)
}

// Config holds console server configuration
type Config struct {
	ListenAddr     string
	MaxClients     int
	Token          string
	ReplyTimeout   time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns default console server configuration
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:7777",
		MaxClients:     8,
		ReplyTimeout:   5 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 4 * 1024,
	}
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.Wrap(ErrInvalidConfig, "listen address is empty")
	}
	if c.MaxClients <= 0 {
		return errors.Wrap(ErrInvalidConfig, "max clients must be positive")
	}
	if c.ReplyTimeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "reply timeout must be positive")
	}
	return nil
}

// ConsoleServer exposes the debug console over a websocket.
type ConsoleServer struct {
	config   Config
	console  Submitter
	auth     TokenAuth
	logger   log.Log
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener

	sessions     sync.Map // map[string]*session
	sessionCount atomic.Int64

	running atomic.Bool
	closed  atomic.Bool
	workers sync.WaitGroup
}

func NewConsoleServer(config Config, console Submitter, logger log.Log) *ConsoleServer {
	s := &ConsoleServer{
		config:  config,
		console: console,
		auth:    TokenAuth{Token: config.Token},
		logger:  logger.With(log.String("component", "console-server")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler serves the console endpoint. It can be mounted on any mux.
func (s *ConsoleServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ConsolePath, s.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *ConsoleServer) Start(_ context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		return errors.Wrapf(ErrListenerFailed, "listen on %s: %v", s.config.ListenAddr, err)
	}
	s.listener = listener

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Console server stopped unexpectedly", log.Error(err))
		}
	}()

	s.logger.Info("Console server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound address once Start succeeded.
func (s *ConsoleServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the listener down and disconnects every client.
func (s *ConsoleServer) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}
	s.closed.Store(true)

	s.logger.Info("Stopping console server")

	err := s.httpServer.Shutdown(ctx)

	s.sessions.Range(func(_, value any) bool {
		if sess, ok := value.(*session); ok {
			_ = sess.close("server shutting down")
		}
		return true
	})
	s.workers.Wait()

	s.logger.Info("Console server stopped")
	return errors.Wrap(err, "shutdown console server")
}

func (s *ConsoleServer) SessionCount() int64 {
	return s.sessionCount.Load()
}

func (s *ConsoleServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Authorize(r); err != nil {
		s.logger.Warn("Console client rejected", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if s.sessionCount.Add(1) > int64(s.config.MaxClients) {
		s.sessionCount.Add(-1)
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sessionCount.Add(-1)
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	sess := newSession(conn, s.config)
	s.sessions.Store(sess.ID(), sess)

	s.serveSession(r.Context(), sess)
}

func (s *ConsoleServer) serveSession(ctx context.Context, sess *session) {
	logger := s.logger.With(log.String("session_id", sess.ID()))
	logger.Info("Console client connected", log.Int64("sessions", s.sessionCount.Load()))

	defer func() {
		s.sessions.Delete(sess.ID())
		s.sessionCount.Add(-1)
		_ = sess.close("bye")
		logger.Info("Console client disconnected",
			log.Uint64("lines", sess.linesReceived.Load()),
			log.Duration("connected_for", time.Since(sess.connectedAt)))
	}()

	for {
		line, err := sess.receive()
		if err != nil {
			if !sess.closed.Load() && !websocket.IsCloseError(errors.Cause(err), websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Console read failed", log.Error(err))
			}
			return
		}
		if line == "" {
			continue
		}

		replyCtx, cancel := context.WithTimeout(ctx, s.config.ReplyTimeout)
		lines, err := s.console.Submit(replyCtx, line)
		cancel()
		if err != nil {
			lines = []string{"Console error: " + err.Error()}
		}

		if err := sess.send(lines); err != nil {
			logger.Debug("Console write failed", log.Error(err))
			return
		}
	}
}
