package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	logx "github.com/blueplan/notes-go/internal/notes/log"
)

// Server HTTP服务器
type Server struct {
	srv    *http.Server
	logger *logx.Logger
	ln     net.Listener
}

// NewServer 创建HTTP服务器
func NewServer(router *Router, logger *logx.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Handler:           router.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Listen binds addr and returns the resolved address; port 0 picks a free port
func (s *Server) Listen(addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	s.ln = ln
	return ln.Addr(), nil
}

// Serve blocks until the server stops; a graceful shutdown returns nil
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("server not listening")
	}
	s.logger.Info(ctx, "http.server.start", logx.KV("addr", s.ln.Addr().String()))
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "http.server.stop")
	return s.srv.Shutdown(ctx)
}
