package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photozip/config"
	photoziphttp "github.com/sagarc03/photozip/http"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the photozip HTTP server.

Routes:
  GET /                        index page
  GET /archive/<directory>/    zip archive of the directory, streamed
  GET /history                 recorded archive streams (history enabled only)`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 8080, "HTTP server port")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	indexPage, err := os.ReadFile(cfg.Index.Template)
	if err != nil {
		return fmt.Errorf("read index template: %w", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	handler := photoziphttp.NewHandler(&photoziphttp.HandlerConfig{
		IndexPage:         indexPage,
		ChunkWriteTimeout: seconds(cfg.Server.ChunkWriteTimeout),
		CORS:              cfg.CORS,
	}, a.service)

	return serve(ctx, cfg.Server, handler.Router())
}

// serve runs the server until ctx is done. Archive streams still running
// when the shutdown timeout expires are cut off.
func serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler) error {
	addr := net.JoinHostPort("", strconv.Itoa(cfg.Port))

	// No WriteTimeout: an archive may stream for as long as the client reads.
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown timed out, closing open streams", "err", err)
		_ = server.Close()
	}

	return <-errCh
}
