// Package upload pushes plaintext records to the Gemini file service with a
// resumable manifest, so repeated runs skip files that already made it.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/metrics"
)

// FileService is the document-store boundary. The production implementation
// wraps the Gemini SDK; tests substitute a mock.
type FileService interface {
	Upload(ctx context.Context, r io.Reader, displayName string) (fileID string, err error)
}

// ManifestEntry records one file's upload outcome.
type ManifestEntry struct {
	FileID      string `json:"file_id,omitempty"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	DisplayName string `json:"display_name,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Upload outcomes.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Manifest is the persisted resume state, keyed by source file path.
type Manifest struct {
	StoreName string                    `json:"store_name,omitempty"`
	Uploaded  map[string]*ManifestEntry `json:"uploaded"`
}

// Stats summarizes one upload run.
type Stats struct {
	TotalFiles int
	Uploaded   int
	Failed     int
	Skipped    int
	TotalBytes int64
}

// Config controls uploader behavior.
type Config struct {
	StoreName    string
	ManifestPath string
	// Delay is slept between uploads.
	Delay time.Duration
	// RetryDelay seeds the per-file exponential backoff.
	RetryDelay   time.Duration
	MaxRetries   int
	SkipExisting bool
	// Limit bounds how many files one run considers. Zero means all.
	Limit int
}

func (c *Config) applyDefaults() {
	if c.StoreName == "" {
		c.StoreName = "labor-faq"
	}
	if c.Delay == 0 {
		c.Delay = 3 * time.Second
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// Uploader drives manifest-tracked uploads through a FileService.
type Uploader struct {
	svc      FileService
	cfg      Config
	logger   *zap.Logger
	manifest *Manifest
	stats    Stats
	pause    func(ctx context.Context, d time.Duration)
	now      func() time.Time
}

// New loads any existing manifest and returns an Uploader.
func New(svc FileService, cfg Config, logger *zap.Logger) (*Uploader, error) {
	cfg.applyDefaults()
	if cfg.ManifestPath == "" {
		return nil, fmt.Errorf("manifest path is required")
	}

	u := &Uploader{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		pause:  sleep,
		now:    time.Now,
	}
	manifest, err := loadManifest(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}
	manifest.StoreName = cfg.StoreName
	u.manifest = manifest
	return u, nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func loadManifest(path string) (*Manifest, error) {
	manifest := &Manifest{Uploaded: map[string]*ManifestEntry{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return manifest, nil
		}
		return nil, fmt.Errorf("load manifest %s: %w", path, err)
	}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if manifest.Uploaded == nil {
		manifest.Uploaded = map[string]*ManifestEntry{}
	}
	return manifest, nil
}

func (u *Uploader) saveManifest() error {
	dir := filepath.Dir(u.cfg.ManifestPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create manifest dir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(u.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(u.cfg.ManifestPath, data, 0o600); err != nil {
		return fmt.Errorf("write manifest %s: %w", u.cfg.ManifestPath, err)
	}
	return nil
}

// UploadDirectory uploads every .txt file under dir in sorted order,
// skipping manifest-recorded successes when configured to.
func (u *Uploader) UploadDirectory(ctx context.Context, dir string) (*Stats, error) {
	all, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(all)
	if u.cfg.Limit > 0 && len(all) > u.cfg.Limit {
		all = all[:u.cfg.Limit]
	}
	u.stats.TotalFiles = len(all)

	var pending []string
	for _, path := range all {
		if u.cfg.SkipExisting {
			if entry, ok := u.manifest.Uploaded[path]; ok && entry.Status == StatusSuccess {
				u.stats.Skipped++
				continue
			}
		}
		pending = append(pending, path)
	}

	u.logger.Info("upload run starting",
		zap.Int("found", len(all)),
		zap.Int("skipped", u.stats.Skipped),
		zap.Int("pending", len(pending)),
		zap.String("store", u.cfg.StoreName),
	)

	for i, path := range pending {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("upload run canceled: %w", err)
		}
		if err := u.uploadFile(ctx, path); err != nil {
			u.logger.Warn("file upload gave up", zap.String("path", path), zap.Error(err))
		}
		if i < len(pending)-1 {
			u.pause(ctx, u.cfg.Delay)
		}
	}

	u.logger.Info("upload run complete",
		zap.Int("total", u.stats.TotalFiles),
		zap.Int("uploaded", u.stats.Uploaded),
		zap.Int("failed", u.stats.Failed),
		zap.Int("skipped", u.stats.Skipped),
		zap.Int64("bytes", u.stats.TotalBytes),
	)
	stats := u.stats
	return &stats, nil
}

// uploadFile sends one file with exponential-backoff retries and records
// the outcome in the manifest either way.
func (u *Uploader) uploadFile(ctx context.Context, path string) error {
	displayName := filepath.Base(path)

	var lastErr error
	for attempt := 0; attempt < u.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := u.cfg.RetryDelay * (1 << uint(attempt-1))
			u.logger.Info("retrying upload",
				zap.String("file", displayName),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			u.pause(ctx, backoff)
		}

		f, err := os.Open(path)
		if err != nil {
			lastErr = err
			continue
		}
		fileID, err := u.svc.Upload(ctx, f, displayName)
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = closeErr
		}
		if err != nil {
			lastErr = err
			continue
		}

		u.stats.Uploaded++
		if info, statErr := os.Stat(path); statErr == nil {
			u.stats.TotalBytes += info.Size()
		}
		metrics.FilesUploaded.Inc()

		u.manifest.Uploaded[path] = &ManifestEntry{
			FileID:      fileID,
			Status:      StatusSuccess,
			Timestamp:   u.now().Format(time.RFC3339),
			DisplayName: displayName,
		}
		return u.saveManifest()
	}

	u.stats.Failed++
	u.manifest.Uploaded[path] = &ManifestEntry{
		Status:    StatusFailed,
		Timestamp: u.now().Format(time.RFC3339),
		Error:     lastErr.Error(),
	}
	if err := u.saveManifest(); err != nil {
		return err
	}
	return fmt.Errorf("upload %s after %d attempts: %w", path, u.cfg.MaxRetries, lastErr)
}

// MappingFile is the record-to-file-ID document written after a run.
type MappingFile struct {
	StoreName  string                  `json:"store_name"`
	TotalFiles int                     `json:"total_files"`
	UploadedAt string                  `json:"uploaded_at"`
	Files      map[string]MappingEntry `json:"files"`
}

// MappingEntry links one record ID to its uploaded file.
type MappingEntry struct {
	GeminiFileID string `json:"gemini_file_id"`
	DisplayName  string `json:"display_name"`
}

// WriteMapping persists the record-ID to file-ID mapping for every
// manifest success.
func (u *Uploader) WriteMapping(path string) error {
	mapping := MappingFile{
		StoreName:  u.cfg.StoreName,
		UploadedAt: u.now().Format(time.RFC3339),
		Files:      map[string]MappingEntry{},
	}
	for filePath, entry := range u.manifest.Uploaded {
		if entry.Status != StatusSuccess {
			continue
		}
		recordID := filepath.Base(filePath)
		recordID = recordID[:len(recordID)-len(filepath.Ext(recordID))]
		mapping.Files[recordID] = MappingEntry{
			GeminiFileID: entry.FileID,
			DisplayName:  entry.DisplayName,
		}
	}
	mapping.TotalFiles = len(mapping.Files)

	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write mapping %s: %w", path, err)
	}
	u.logger.Info("mapping written", zap.String("path", path), zap.Int("files", mapping.TotalFiles))
	return nil
}

// Stats returns a copy of the running counters.
func (u *Uploader) Stats() Stats { return u.stats }
