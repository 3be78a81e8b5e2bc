package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coolyuoo/memstress/internal/config"
	"github.com/coolyuoo/memstress/internal/journal"
	"github.com/coolyuoo/memstress/internal/pool"
	"github.com/coolyuoo/memstress/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the memory-pressure HTTP server",
	Long: `Run the HTTP server that holds the allocation pool.
Endpoints: GET / (status), POST /mem/add, /mem/set, /mem/free, /mem/clear,
GET /health (liveness), GET /metrics (Prometheus).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := createLogger(cfg.LogLevel)

	alloc, err := buildAllocator(cfg)
	if err != nil {
		return err
	}

	p := pool.New(pool.Options{
		Allocator: alloc,
		ChunkMB:   cfg.ChunkMB,
		MaxGrowMB: cfg.MaxGrowMB,
		Logger:    logger,
	})

	var jw *journal.Writer
	if cfg.JournalEnabled {
		jw, err = journal.NewWriter(cfg.JournalFile)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer func() {
			_ = jw.Close() //nolint:errcheck // best effort close on shutdown
		}()
	}

	srv := server.New(p, server.Options{
		Logger:  logger,
		Journal: jw,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Info("memstress server listening",
		slog.String("addr", cfg.ListenAddr),
		slog.String("allocator", cfg.Allocator),
		slog.Int("chunk_mb", cfg.ChunkMB),
		slog.Int("max_grow_mb", cfg.MaxGrowMB))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// buildAllocator picks the block backend from config.
func buildAllocator(cfg *config.Config) (pool.Allocator, error) {
	switch cfg.Allocator {
	case "", "heap":
		return pool.NewHeapAllocator(cfg.TouchPages), nil
	case "mmap":
		return pool.NewMmapAllocator(cfg.TouchPages), nil
	default:
		return nil, fmt.Errorf("unknown allocator %q (want \"heap\" or \"mmap\")", cfg.Allocator)
	}
}
