package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"focus-guard/agent/internal/logger"
)

type Server struct {
	srv *http.Server
}

func NewServer(host string, port int, handler http.Handler) *Server {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	return &Server{srv: &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}}
}

// Start listens in the background. Bind errors are returned synchronously.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server stopped: %v", err)
		}
	}()
	logger.Infof("API listening on %s", s.srv.Addr)
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
