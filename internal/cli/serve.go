package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/ruleflow/pkg/adapters/http"
)

// Serve runs the HTTP API on ln until ctx is cancelled, then drains
// outstanding requests for up to shutdownTimeout.
func Serve(ctx context.Context, rt *Runtime, ln net.Listener, shutdownTimeout time.Duration) error {
	handler := httpAdapter.NewHandler(rt.Engine,
		httpAdapter.WithLogger(rt.Logger),
		httpAdapter.WithGatherer(rt.Registry),
	)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		rt.Logger.Info("HTTP server listening", "address", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		rt.Logger.Info("shutting down HTTP server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		rt.Logger.Info("HTTP server stopped gracefully")
		return nil
	}
}
