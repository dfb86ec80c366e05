package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roost-io/roost/internal/config"
	"github.com/roost-io/roost/internal/printer"
	"github.com/roost-io/roost/pkg/bus"
)

var resultsJSON bool

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List cached results",
	Long: `List the results cached in Redis for this instance.

Workers cache every completed result by content hash; the "cached"
deduplication policy serves repeat requests from this cache. This command
shows what is currently cached.`,
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
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
		return printer.Error(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s: %v", cfg.RedisURL, err),
			[]string{"Check that Redis is running and redis_url is correct in roost.yml"},
		)
	}

	results, err := b.ListResults(ctx)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	if resultsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		printer.Info("No cached results for instance '%s'\n", cfg.Instance)
		return nil
	}

	printer.Info("Cached results for instance '%s':\n\n", cfg.Instance)
	for _, result := range results {
		printer.Info("%s  (%d answers)\n", result.ContentHash, len(result.Answers))
	}

	return nil
}
