package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"token-presale-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
}

func New(cfg models.ServerConfig, engine *gin.Engine) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start serves in the background; errors other than a clean shutdown are sent on the returned channel
func (s *Server) Start() <-chan error {
	errs := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server failed: %w", err)
		}
		close(errs)
	}()
	return errs
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	zap.L().Info("Shutting down HTTP server")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
