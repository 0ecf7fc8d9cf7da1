package utils

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = DefaultReadTimeout
	DefaultShutdownTimeout = 30 * time.Second
)

// Server is an http.Server that drains on SIGINT/SIGTERM (or when its context
// ends) and then runs registered shutdown hooks in reverse order.
type Server struct {
	*http.Server

	shutdownTimeout time.Duration
	mu              sync.Mutex
	hooks           []func(context.Context) error
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// OnShutdown registers fn to run after the listener stops accepting requests.
func (srv *Server) OnShutdown(fn func(context.Context) error) {
	srv.mu.Lock()
	srv.hooks = append(srv.hooks, fn)
	srv.mu.Unlock()
}

// Run serves on the configured address until ctx is done or a termination
// signal arrives.
func (srv *Server) Run(ctx context.Context) error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return srv.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		Sugar.Infof("http server listening on %s", ln.Addr())
		errCh <- srv.Server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		srv.runHooks()
		return err
	case <-ctx.Done():
		Sugar.Info("shutting down http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		Sugar.Errorf("http server shutdown error: %v", err)
	} else {
		Sugar.Info("http server shutdown complete")
	}
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) && err == nil {
		err = serveErr
	}
	srv.runHooks()
	return err
}

func (srv *Server) runHooks() {
	srv.mu.Lock()
	hooks := srv.hooks
	srv.hooks = nil
	srv.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), srv.shutdownTimeout)
	defer cancel()
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			Sugar.Warnf("shutdown hook failed: %v", err)
		}
	}
}

// GraceServer serves handler on addr until interrupted, then runs hooks.
func GraceServer(addr string, handler http.Handler, hooks ...func(context.Context) error) error {
	srv := NewServer(addr, handler, DefaultReadTimeout, DefaultWriteTimeout)
	for _, h := range hooks {
		srv.OnShutdown(h)
	}
	return srv.Run(context.Background())
}
