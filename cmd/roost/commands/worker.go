package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roost-io/roost/internal/config"
	"github.com/roost-io/roost/internal/pipeline"
	"github.com/roost-io/roost/internal/worker"
	"github.com/roost-io/roost/pkg/bus"
)

var workerEcho bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a worker daemon",
	Long: `Run a worker that subscribes to the shared event channel, answers
each process event through the configured pipeline, and publishes result
events.

The --echo flag selects a stub pipeline that restates each question; it is
intended for local development and end-to-end smoke tests.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().BoolVar(&workerEcho, "echo", false, "Use the echo stub pipeline")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Ping(runCtx); err != nil {
		return fmt.Errorf("redis not accessible: %w", err)
	}

	if !workerEcho {
		return fmt.Errorf("no pipeline configured: only --echo is available in this build")
	}

	engine := worker.New(b, pipeline.Echo{})

	log.Printf("[INFO] Worker starting for instance '%s'", cfg.Instance)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		errCh <- engine.Start(runCtx)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("[INFO] Received signal %v, shutting down gracefully...", sig)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("worker error: %w", err)
		}
	}

	log.Printf("[INFO] Worker stopped")
	return nil
}
