package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"ssal/internal/configuration/properties"
	"ssal/internal/transport/handler"
)

type Server struct {
	log        *slog.Logger
	cfg        *properties.TransportConfigProperties
	httpServer *http.Server
}

func NewServer(cfg *properties.TransportConfigProperties, log *slog.Logger, services handler.Config) *Server {
	services.MaxBodyBytes = cfg.MaxBodyBytes
	h := handler.New(log.With("component", "http"), services)

	return &Server{
		log: log,
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           newRouter(log, h, cfg.RequestTimeoutDuration()),
			ReadTimeout:       cfg.ReadTimeoutDuration(),
			ReadHeaderTimeout: cfg.ReadTimeoutDuration(),
			WriteTimeout:      cfg.WriteTimeoutDuration(),
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Listen() (net.Listener, error) {
	network := s.cfg.Network
	if network == "" {
		network = "tcp"
	}
	ln, err := net.Listen(network, s.httpServer.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return ln, nil
}

// Serve blocks until the listener fails or Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("HTTP server starting", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if timeout := s.cfg.ShutdownTimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}
