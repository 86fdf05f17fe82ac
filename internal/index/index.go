// Package index derives secondary lookup structures and summary metadata
// from a full record batch. Indexes are rebuilt from scratch on every run;
// there is no incremental maintenance.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
)

// DateEntry lists the 1-based line positions of records sharing a date.
type DateEntry struct {
	LineNumbers []int `json:"line_numbers"`
	Count       int   `json:"count"`
}

// CategoryEntry summarizes one category bucket.
type CategoryEntry struct {
	Count      int `json:"count"`
	LatestLine int `json:"latest_line"`
}

// IDEntry locates one record by identifier.
type IDEntry struct {
	Line     int    `json:"line"`
	Date     string `json:"date,omitempty"`
	Category string `json:"category,omitempty"`
}

// Index is the persisted lookup document for one source.
type Index struct {
	ByDate     map[string]*DateEntry     `json:"by_date"`
	ByCategory map[string]*CategoryEntry `json:"by_category"`
	ByID       map[string]*IDEntry       `json:"by_id"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		ByDate:     make(map[string]*DateEntry),
		ByCategory: make(map[string]*CategoryEntry),
		ByID:       make(map[string]*IDEntry),
	}
}

// Metadata is the persisted batch summary for one source.
type Metadata struct {
	DataType       string    `json:"data_type"`
	TotalCount     int       `json:"total_count"`
	LastCrawlDate  string    `json:"last_crawl_date,omitempty"`
	LastID         string    `json:"last_id,omitempty"`
	DateRange      [2]string `json:"date_range"`
	LastIndexBuild string    `json:"last_index_build,omitempty"`
	CreatedAt      string    `json:"created_at,omitempty"`
}

// Builder writes index.json and metadata.json next to each source's batch
// file.
type Builder struct {
	dataDir string
	logger  *zap.Logger
	now     func() time.Time
}

// NewBuilder returns a Builder rooted at dataDir.
func NewBuilder(dataDir string, logger *zap.Logger) *Builder {
	return &Builder{dataDir: dataDir, logger: logger, now: time.Now}
}

// IndexPath returns the index file path for a source.
func (b *Builder) IndexPath(source faq.Source) string {
	return filepath.Join(b.dataDir, source.Dir(), "index.json")
}

// MetadataPath returns the metadata file path for a source.
func (b *Builder) MetadataPath(source faq.Source) string {
	return filepath.Join(b.dataDir, source.Dir(), "metadata.json")
}

// Build computes the lookup structures over records in batch order and
// persists both documents.
func (b *Builder) Build(source faq.Source, records []*faq.Record) error {
	idx := BuildIndex(records)
	if err := writeJSON(b.IndexPath(source), idx); err != nil {
		return fmt.Errorf("save index for %s: %w", source, err)
	}

	meta, err := b.LoadMetadata(source)
	if err != nil {
		return err
	}
	updateMetadata(meta, records, b.now())
	if err := writeJSON(b.MetadataPath(source), meta); err != nil {
		return fmt.Errorf("save metadata for %s: %w", source, err)
	}

	b.logger.Info("index built",
		zap.String("source", string(source)),
		zap.Int("records", len(records)),
	)
	return nil
}

// BuildIndex computes the in-memory index for a batch. Positions are
// 1-based, matching JSONL line numbers.
func BuildIndex(records []*faq.Record) *Index {
	idx := NewIndex()
	for i, rec := range records {
		line := i + 1

		date := rec.IndexDate()
		if date != "" {
			entry := idx.ByDate[date]
			if entry == nil {
				entry = &DateEntry{}
				idx.ByDate[date] = entry
			}
			entry.LineNumbers = append(entry.LineNumbers, line)
			entry.Count++
		}

		if rec.Category != "" {
			entry := idx.ByCategory[rec.Category]
			if entry == nil {
				entry = &CategoryEntry{}
				idx.ByCategory[rec.Category] = entry
			}
			entry.Count++
			entry.LatestLine = line
		}

		if rec.ID != "" {
			idx.ByID[rec.ID] = &IDEntry{Line: line, Date: date, Category: rec.Category}
		}
	}
	return idx
}

func updateMetadata(meta *Metadata, records []*faq.Record, now time.Time) {
	meta.TotalCount = len(records)
	meta.LastIndexBuild = now.Format(time.RFC3339)

	if len(records) == 0 {
		return
	}

	var minDate, maxDate string
	for _, rec := range records {
		date := rec.IndexDate()
		if date == "" {
			continue
		}
		if minDate == "" || date < minDate {
			minDate = date
		}
		if date > maxDate {
			maxDate = date
		}
	}
	if minDate != "" {
		meta.DateRange = [2]string{minDate, maxDate}
	}

	last := records[len(records)-1]
	if d := last.Metadata.UpdatedDate; d != "" {
		meta.LastCrawlDate = d
	}
	if last.ID != "" {
		meta.LastID = last.ID
	}
}

// LoadIndex reads a previously built index, returning an empty one when the
// file does not exist.
func (b *Builder) LoadIndex(source faq.Source) (*Index, error) {
	idx := NewIndex()
	if err := readJSON(b.IndexPath(source), idx); err != nil {
		if os.IsNotExist(err) {
			return NewIndex(), nil
		}
		return nil, fmt.Errorf("load index for %s: %w", source, err)
	}
	return idx, nil
}

// LoadMetadata reads batch metadata, returning a fresh document when the
// file does not exist.
func (b *Builder) LoadMetadata(source faq.Source) (*Metadata, error) {
	meta := &Metadata{}
	if err := readJSON(b.MetadataPath(source), meta); err != nil {
		if os.IsNotExist(err) {
			return &Metadata{
				DataType:  source.Dir(),
				CreatedAt: b.now().Format(time.RFC3339),
			}, nil
		}
		return nil, fmt.Errorf("load metadata for %s: %w", source, err)
	}
	return meta, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
