package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/crawl"
	"github.com/twgovdata/laborfaq/internal/faq"
	"github.com/twgovdata/laborfaq/internal/fetch"
	"github.com/twgovdata/laborfaq/internal/index"
	"github.com/twgovdata/laborfaq/internal/metrics"
	"github.com/twgovdata/laborfaq/internal/source/bli"
	"github.com/twgovdata/laborfaq/internal/source/mol"
	"github.com/twgovdata/laborfaq/internal/source/osha"
	"github.com/twgovdata/laborfaq/internal/store"
)

var crawlSource string

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl FAQ sources into the JSONL store and rebuild indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sources, err := selectSources(crawlSource)
		if err != nil {
			return err
		}

		if cfg.Metrics.Enabled {
			metrics.Serve(cfg.Metrics.Addr, logger)
		}

		client := fetch.New(fetch.Config{
			UserAgent:  cfg.HTTP.UserAgent,
			Timeout:    cfg.HTTP.Timeout(),
			Interval:   cfg.HTTP.Interval(),
			MaxRetries: cfg.HTTP.MaxRetries,
			// The target government hosts serve broken certificate chains.
			InsecureSkipVerify: true,
		}, logger)

		st, err := store.New(cfg.DataDir, logger)
		if err != nil {
			return err
		}
		builder := index.NewBuilder(cfg.DataDir, logger)
		runner := crawl.NewRunner(client, logger)

		for _, source := range sources {
			batch, err := runSource(cmd.Context(), runner, client, source)
			if err != nil {
				return fmt.Errorf("crawl %s: %w", source, err)
			}
			if err := st.WriteItems(source, batch, store.Overwrite); err != nil {
				return err
			}
			if err := builder.Build(source, batch); err != nil {
				return err
			}
			logger.Info("source crawled",
				zap.String("source", string(source)),
				zap.Int("records", len(batch)),
			)
		}
		return nil
	},
}

func runSource(ctx context.Context, runner *crawl.Runner, client *fetch.Client, source faq.Source) ([]*faq.Record, error) {
	switch source {
	case faq.SourceMOL:
		site := mol.New(cfg.Sources.MOL.BaseURL, cfg.Sources.MOL.ListURL, logger)
		return runner.RunPaginated(ctx, site, cfg.Crawl.StartPage, cfg.Crawl.MaxPages)
	case faq.SourceBLI:
		site := bli.New(cfg.Sources.BLI.BaseURL, cfg.Sources.BLI.ListURL, logger)
		return runner.RunTree(ctx, site)
	case faq.SourceOSHA:
		site := osha.New(cfg.Sources.OSHA.BaseURL, cfg.Sources.OSHA.IndexURL, client, logger)
		return runner.RunMultiLevel(ctx, site)
	}
	return nil, fmt.Errorf("unknown source %q", source)
}

// selectSources resolves the --source flag into crawl targets.
func selectSources(flag string) ([]faq.Source, error) {
	if flag == "all" {
		return []faq.Source{faq.SourceMOL, faq.SourceBLI, faq.SourceOSHA}, nil
	}
	source := faq.Source(flag)
	if !source.Valid() {
		return nil, fmt.Errorf("unknown source %q (want mol, bli, osha, or all)", flag)
	}
	return []faq.Source{source}, nil
}

func init() {
	crawlCmd.Flags().StringVar(&crawlSource, "source", "all", "source to crawl: mol, bli, osha, or all")
	rootCmd.AddCommand(crawlCmd)
}
