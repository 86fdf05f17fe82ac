// Package store persists crawl batches as line-delimited JSON, one file per
// source. Records are immutable after persistence; a re-crawl overwrites the
// whole batch.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
)

// Mode selects how WriteItems opens the batch file.
type Mode int

// Write modes. Concurrent writers to one source file are unsupported.
const (
	Append Mode = iota
	Overwrite
)

const rawFileName = "raw.jsonl"

// Store is a JSONL-backed record store rooted at a data directory.
type Store struct {
	dataDir string
	logger  *zap.Logger
	now     func() time.Time
}

// New creates the data directory if needed and returns a Store.
func New(dataDir string, logger *zap.Logger) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir, logger: logger, now: time.Now}, nil
}

// Path returns the JSONL file path for a source.
func (s *Store) Path(source faq.Source) string {
	return filepath.Join(s.dataDir, source.Dir(), rawFileName)
}

// WriteItems persists records for a source, stamping each with a write
// timestamp. Write failures are returned: silently losing a crawl batch is
// unacceptable.
func (s *Store) WriteItems(source faq.Source, records []*faq.Record, mode Mode) error {
	path := s.Path(source)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create source dir for %s: %w", source, err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if mode == Overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	stamp := s.now().Format(time.RFC3339)
	for _, rec := range records {
		rec.WriteTimestamp = stamp
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.ID, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	s.logger.Info("batch written",
		zap.String("source", string(source)),
		zap.Int("records", len(records)),
		zap.String("path", path),
	)
	return nil
}

// ReadAll loads every record for a source. A missing file yields an empty
// batch; malformed lines are logged and skipped, never fatal.
func (s *Store) ReadAll(source faq.Source) ([]*faq.Record, error) {
	var records []*faq.Record
	for rec := range s.Stream(source) {
		records = append(records, rec)
	}
	return records, nil
}

// Stream lazily yields records one at a time, in file order, without
// loading the whole batch. Malformed lines are logged and skipped.
func (s *Store) Stream(source faq.Source) iter.Seq[*faq.Record] {
	return func(yield func(*faq.Record) bool) {
		path := s.Path(source)
		f, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Error("open batch file", zap.String("path", path), zap.Error(err))
			}
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var rec faq.Record
			if err := json.Unmarshal(line, &rec); err != nil {
				s.logger.Error("skipping malformed line",
					zap.String("path", path),
					zap.Int("line", lineNum),
					zap.Error(err),
				)
				continue
			}
			if !yield(&rec) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.logger.Error("scan batch file", zap.String("path", path), zap.Error(err))
		}
	}
}

// Count returns the number of non-blank lines in a source's batch file.
func (s *Store) Count(source faq.Source) (int, error) {
	f, err := os.Open(s.Path(source))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open %s: %w", s.Path(source), err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", s.Path(source), err)
	}
	return n, nil
}

// LastItem reverse-scans the batch file for its final record without reading
// the whole file, for incremental-update anchoring. Returns nil when the
// file is missing or empty.
func (s *Store) LastItem(source faq.Source) (*faq.Record, error) {
	path := s.Path(source)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	line, err := lastLine(f)
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", path, err)
	}
	if len(line) == 0 {
		return nil, nil
	}

	var rec faq.Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("parse last line of %s: %w", path, err)
	}
	return &rec, nil
}

// lastLine reads backwards in fixed-size blocks until it finds the final
// non-empty line.
func lastLine(f *os.File) ([]byte, error) {
	const blockSize = 4096

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	var tail []byte
	offset := size
	for offset > 0 {
		readLen := int64(blockSize)
		if offset < readLen {
			readLen = offset
		}
		offset -= readLen

		block := make([]byte, readLen)
		if _, err := f.ReadAt(block, offset); err != nil && err != io.EOF {
			return nil, err
		}
		tail = append(block, tail...)

		if line := finalLine(tail); line != nil {
			return line, nil
		}
	}
	return finalNonEmpty(tail), nil
}

// finalLine returns the last non-empty line of buf only if a preceding
// newline bounds it, meaning the line is complete.
func finalLine(buf []byte) []byte {
	trimmed := bytes.TrimRight(buf, "\n\r \t")
	if len(trimmed) == 0 {
		return nil
	}
	idx := bytes.LastIndexByte(trimmed, '\n')
	if idx < 0 {
		return nil
	}
	return bytes.TrimSpace(trimmed[idx+1:])
}

func finalNonEmpty(buf []byte) []byte {
	trimmed := bytes.TrimRight(buf, "\n\r \t")
	idx := bytes.LastIndexByte(trimmed, '\n')
	return bytes.TrimSpace(trimmed[idx+1:])
}
