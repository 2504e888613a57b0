package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/tirtha/internal/pkg/logger"
)

const defaultShutdownTimeout = 30 * time.Second

// GracefulServer wraps Echo server with graceful shutdown capabilities
type GracefulServer struct {
	echo            *echo.Echo
	logger          *logger.ZapLogger
	port            int
	shutdownTimeout time.Duration
	shutdown        *ShutdownManager
}

// NewGracefulServer creates a new server with graceful shutdown
func NewGracefulServer(e *echo.Echo, zapLogger *logger.ZapLogger, port int) *GracefulServer {
	return &GracefulServer{
		echo:            e,
		logger:          zapLogger,
		port:            port,
		shutdownTimeout: defaultShutdownTimeout,
	}
}

// WithShutdownManager runs the manager's cleanup after the HTTP server stops
func (s *GracefulServer) WithShutdownManager(sm *ShutdownManager) *GracefulServer {
	s.shutdown = sm
	return s
}

// Start runs the server until SIGINT or SIGTERM is received
func (s *GracefulServer) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled or the listener fails, then shuts down
func (s *GracefulServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		s.logger.Info("Starting HTTP server", logger.String("address", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			s.logger.Error("HTTP server failed", logger.Err(err))
			s.runShutdownManager()
			return err
		}
	case <-ctx.Done():
		s.logger.Info("Received shutdown signal")
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server and registered components
func (s *GracefulServer) Shutdown() error {
	s.logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.echo.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Server forced to shutdown", logger.Err(err))
	}

	s.runShutdownManager()
	if err == nil {
		s.logger.Info("Server shutdown completed")
	}
	return err
}

func (s *GracefulServer) runShutdownManager() {
	if s.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	_ = s.shutdown.Shutdown(ctx)
}

type shutdownFunc struct {
	name string
	fn   func(context.Context) error
}

// ShutdownManager runs registered cleanup functions in reverse registration order
type ShutdownManager struct {
	logger    *logger.ZapLogger
	functions []shutdownFunc
}

// NewShutdownManager creates a new shutdown manager
func NewShutdownManager(zapLogger *logger.ZapLogger) *ShutdownManager {
	return &ShutdownManager{
		logger: zapLogger,
	}
}

// Register adds a cleanup function to be called during shutdown
func (sm *ShutdownManager) Register(name string, fn func(context.Context) error) {
	sm.functions = append(sm.functions, shutdownFunc{name: name, fn: fn})
}

// Shutdown executes all registered cleanup functions, newest first. Failures are
// logged and do not stop the remaining components. The first error is returned.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	sm.logger.Info("Starting graceful shutdown of components", logger.Int("components", len(sm.functions)))

	var first error
	for i := len(sm.functions) - 1; i >= 0; i-- {
		f := sm.functions[i]
		if err := f.fn(ctx); err != nil {
			sm.logger.Error("Error during component shutdown",
				logger.String("component", f.name),
				logger.Err(err))
			if first == nil {
				first = err
			}
		}
	}

	sm.logger.Info("All components shutdown completed")
	return first
}
