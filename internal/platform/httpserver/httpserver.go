package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"allat.local/internal/platform/config"
)

// New builds the public server from cfg.
func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// NewAdmin builds the admin server (metrics, readiness, pprof). It has no
// write timeout so that pprof profiles can run for their full duration.
func NewAdmin(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// Run serves srv until stopCtx is done, then shuts it down within
// shutdownTimeout. The onShutdown hooks run after the listener is drained,
// in order, sharing the same deadline.
func Run(stopCtx context.Context, srv *http.Server, shutdownTimeout time.Duration, onShutdown ...func(context.Context) error) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return Serve(stopCtx, srv, ln, shutdownTimeout, onShutdown...)
}

// Serve is Run on an existing listener.
func Serve(stopCtx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration, onShutdown ...func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-stopCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, err)
	}
	for _, hook := range onShutdown {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
