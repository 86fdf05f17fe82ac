package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/index"
	"github.com/twgovdata/laborfaq/internal/store"
)

var indexSource string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild lookup indexes from the stored batches",
	RunE: func(*cobra.Command, []string) error {
		sources, err := selectSources(indexSource)
		if err != nil {
			return err
		}

		st, err := store.New(cfg.DataDir, logger)
		if err != nil {
			return err
		}
		builder := index.NewBuilder(cfg.DataDir, logger)

		for _, source := range sources {
			records, err := st.ReadAll(source)
			if err != nil {
				return err
			}
			if err := builder.Build(source, records); err != nil {
				return err
			}
			logger.Info("index rebuilt",
				zap.String("source", string(source)),
				zap.Int("records", len(records)),
			)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexSource, "source", "all", "source to index: mol, bli, osha, or all")
	rootCmd.AddCommand(indexCmd)
}
