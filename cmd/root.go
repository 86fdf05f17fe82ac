// Package cmd wires the CLI: one subcommand per pipeline stage.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/config"
	"github.com/twgovdata/laborfaq/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "laborfaq",
	Short: "Crawl, index, format, and upload Taiwan labor agency FAQs",
	Long: `laborfaq runs the labor FAQ pipeline: crawl the MOL, BLI, and OSHA
FAQ sites into JSONL batches, build lookup indexes, emit retrieval-optimized
plaintext files, and upload them to the Gemini file-search service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logger, err = logging.New(cfg.Logging.Development)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ./config.yaml)")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
