package commands

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roost-io/roost/internal/config"
	"github.com/roost-io/roost/internal/coordinator"
	"github.com/roost-io/roost/internal/notify"
	"github.com/roost-io/roost/internal/server"
	"github.com/roost-io/roost/internal/store"
	"github.com/roost-io/roost/pkg/bus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway daemon",
	Long: `Run the HTTP gateway.

The gateway accepts POST /run requests carrying a document URL and a list
of questions, deduplicates the document by content hash, publishes a
process event on the shared channel, and replies once a worker publishes
the matching result (or the answer timeout elapses).

Configuration comes from roost.yml plus ROOST_* environment overrides.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis_url: %w", err)
	}

	b, err := bus.New(redisOpts, cfg.Instance)
	if err != nil {
		return fmt.Errorf("failed to create bus: %w", err)
	}
	defer b.Close()

	ctx := context.Background()
	if err := b.Ping(ctx); err != nil {
		return fmt.Errorf("redis not accessible: %w", err)
	}

	st, err := store.New(cfg.StoreDir)
	if err != nil {
		return fmt.Errorf("failed to open content store: %w", err)
	}

	coord := coordinator.New(b, st, notify.NewWebhook(cfg.WebhookURL), cfg.Timeout(), cfg.DedupPolicy)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(coord).Handler(),
	}

	log.Printf("[INFO] Gateway starting for instance '%s' on %s (store: %s, timeout: %s, dedup: %s)",
		cfg.Instance, cfg.ListenAddr, cfg.StoreDir, cfg.Timeout(), cfg.DedupPolicy)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Printf("[INFO] Received signal %v, shutting down gracefully...", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("gateway error: %w", err)
		}
	}

	log.Printf("[INFO] Gateway stopped")
	return nil
}
