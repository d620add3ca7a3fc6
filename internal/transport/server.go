package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Handler builds the per-connection Chain (and therefore chooses the
// CodecFactory) for each accepted TCP connection.
type Handler interface {
	Handle(ctx context.Context, session *Session)
}

// Server listens for TCP connections and dispatches each one to a
// Handler, using a deadline-based accept loop so Serve returns cleanly
// once ctx is canceled.
type Server struct {
	listener *net.TCPListener
	logger   *slog.Logger

	mu       sync.Mutex
	shutdown bool
}

// NewServer binds addr and returns a Server ready to Serve.
func NewServer(addr *net.TCPAddr, logger *slog.Logger) (*Server, error) {
	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{listener: listener, logger: logger}, nil
}

// Serve accepts connections until ctx is canceled, dispatching each to
// handler.Handle on its own goroutine.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("transport: server started", "addr", s.listener.Addr())

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		_ = s.listener.SetDeadline(time.Now())
	}()

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			s.mu.Lock()
			shutdown := s.shutdown
			s.mu.Unlock()
			if shutdown {
				s.logger.Info("transport: server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("transport: accept error", "error", err)
			return err
		}

		_ = conn.SetNoDelay(true)
		session := NewSession(conn)
		s.logger.Debug("transport: accepted connection", "session", session.ID(), "addr", conn.RemoteAddr())
		go handler.Handle(ctx, session)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	return s.listener.Close()
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }
