package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/config"
	"github.com/triage-ai/rulewall/internal/ingest"
)

func newIngestCmd(load func() (*config.Config, error)) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the rule index from the source tree and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if root != "" {
				cfg.Ingest.SourceRoot = root
			}
			logger := mustBuildLogger(cfg.Log.Level)
			defer logger.Sync() //nolint:errcheck // best-effort flush

			res, err := runIngest(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "source directory (overrides ingest.source_root)")
	return cmd
}

func runIngest(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ingest.Result, error) {
	a, err := buildApp(ctx, cfg, false, logger)
	if err != nil {
		return nil, err
	}
	defer a.Close() //nolint:errcheck

	res, err := a.pipeline.Run(ctx, cfg.Ingest.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", cfg.Ingest.SourceRoot, err)
	}
	return res, nil
}
