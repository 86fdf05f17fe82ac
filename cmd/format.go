package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
	"github.com/twgovdata/laborfaq/internal/plaintext"
	"github.com/twgovdata/laborfaq/internal/store"
)

var formatSource string

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Emit one retrieval-optimized plaintext file per stored record",
	RunE: func(*cobra.Command, []string) error {
		sources, err := selectSources(formatSource)
		if err != nil {
			return err
		}

		st, err := store.New(cfg.DataDir, logger)
		if err != nil {
			return err
		}

		var records []*faq.Record
		for _, source := range sources {
			batch, err := st.ReadAll(source)
			if err != nil {
				return err
			}
			records = append(records, batch...)
		}

		formatter := plaintext.NewFormatter(logger)
		stats, err := formatter.FormatBatch(records, cfg.PlaintextDir)
		if err != nil {
			return err
		}
		logger.Info("format complete",
			zap.Int("records", stats.TotalItems),
			zap.Int("files", stats.CreatedFiles),
			zap.String("output_dir", stats.OutputDir),
		)
		return nil
	},
}

func init() {
	formatCmd.Flags().StringVar(&formatSource, "source", "all", "source to format: mol, bli, osha, or all")
	rootCmd.AddCommand(formatCmd)
}
