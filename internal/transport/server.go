package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/codebreakergame/codebreaker-go/internal/events"
	"github.com/codebreakergame/codebreaker-go/internal/services/coordinator"
)

// ServerConfig holds configuration for the game's TCP server
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns sensible defaults for the game server
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "",
		Port:            15376,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server accepts TCP connections and runs one coordinator flow per
// connection, with a per-connection event subscription pushing
// broadcast notices to the client.
type Server struct {
	coordinator *coordinator.Coordinator
	bus         *events.Bus
	config      ServerConfig
	logger      *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Conn]bool
	closing  bool

	wg sync.WaitGroup
}

// NewServer creates a game server
func NewServer(coord *coordinator.Coordinator, bus *events.Bus, config ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		coordinator: coord,
		bus:         bus,
		config:      config,
		logger:      logger.With(slog.String("component", "transport")),
		conns:       make(map[*Conn]bool),
	}
}

// Start listens and serves until Shutdown closes the listener
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("game server listening", slog.String("addr", listener.Addr().String()))

	for {
		raw, err := listener.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.logger.Info("client connected", slog.String("remote", raw.RemoteAddr().String()))
		s.wg.Add(1)
		go s.handle(ctx, raw)
	}
}

// Addr returns the bound listen address, empty before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown closes the listener and every live connection, then waits
// for the connection handlers to finish
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down game server")

	s.mu.Lock()
	s.closing = true
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.CloseAfter("Server is shutting down.")
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	select {
	case <-done:
		s.logger.Info("game server stopped")
		return nil
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown: %w", shutdownCtx.Err())
	}
}

func (s *Server) handle(ctx context.Context, raw net.Conn) {
	defer s.wg.Done()

	conn := NewConn(raw, s.logger)
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)
	defer conn.Close()

	sub := s.bus.Subscribe("conn:" + raw.RemoteAddr().String())
	defer s.bus.Unsubscribe(sub)
	go renderEvents(sub, conn)

	if err := s.coordinator.Run(ctx, conn); err != nil {
		s.logger.Info("connection closed",
			slog.String("remote", raw.RemoteAddr().String()),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("client finished", slog.String("remote", raw.RemoteAddr().String()))
}

func (s *Server) track(conn *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = true
	return true
}

func (s *Server) untrack(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}
