package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/upload"
)

var (
	uploadLimit     int
	uploadTest      bool
	uploadDelay     int
	uploadStoreName string
	uploadNoSkip    bool
)

// testModeLimit caps a --test run.
const testModeLimit = 10

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload plaintext files to the Gemini file-search store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is not set")
		}

		limit := uploadLimit
		if uploadTest {
			limit = testModeLimit
			logger.Info("test mode: uploading only the first files", zap.Int("limit", limit))
		}
		storeName := cfg.Upload.StoreName
		if uploadStoreName != "" {
			storeName = uploadStoreName
		}
		delay := time.Duration(cfg.Upload.DelaySeconds) * time.Second
		if uploadDelay > 0 {
			delay = time.Duration(uploadDelay) * time.Second
		}

		svc, err := upload.NewGeminiService(cmd.Context(), apiKey)
		if err != nil {
			return err
		}
		defer func() { _ = svc.Close() }()

		uploader, err := upload.New(svc, upload.Config{
			StoreName:    storeName,
			ManifestPath: cfg.Upload.ManifestPath,
			Delay:        delay,
			MaxRetries:   cfg.Upload.MaxRetries,
			SkipExisting: !uploadNoSkip,
			Limit:        limit,
		}, logger)
		if err != nil {
			return err
		}

		stats, err := uploader.UploadDirectory(cmd.Context(), cfg.PlaintextDir)
		if err != nil {
			return err
		}
		logger.Info("upload summary",
			zap.Int("total", stats.TotalFiles),
			zap.Int("uploaded", stats.Uploaded),
			zap.Int("failed", stats.Failed),
			zap.Int("skipped", stats.Skipped),
		)
		return uploader.WriteMapping(cfg.Upload.MappingPath)
	},
}

func init() {
	uploadCmd.Flags().IntVar(&uploadLimit, "limit", 0, "upload at most this many files (0 = all)")
	uploadCmd.Flags().BoolVar(&uploadTest, "test", false, "test mode: upload only the first 10 files")
	uploadCmd.Flags().IntVar(&uploadDelay, "delay", 0, "seconds between uploads (overrides config)")
	uploadCmd.Flags().StringVar(&uploadStoreName, "store-name", "", "target store name (overrides config)")
	uploadCmd.Flags().BoolVar(&uploadNoSkip, "no-skip", false, "re-upload files already recorded as successful")
	rootCmd.AddCommand(uploadCmd)
}
