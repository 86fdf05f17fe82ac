// Package plaintext converts stored records into noise-stripped text files
// optimized for retrieval. The formatter is a pure function over a record;
// batch output writes one UTF-8 file per record ID.
package plaintext

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
)

// noiseKeywords mark lines of page chrome that carry no FAQ content.
var noiseKeywords = []string{
	"FACEBOOK", "facebook", "FB", "fb",
	"Line", "line", "LINE",
	"Twitter", "twitter",
	"友善列印", "列印", "Print", "print",
	"回上頁", "上一頁", "回首頁",
	"瀏覽人次", "點閱數", "點閱次數",
	"更新日期", "發布日期",
	"分享至", "Share", "share",
	":::",
	"跳到主要內容區塊",
	"網站導覽", "網站地圖",
	"相關連結", "相關網站",
	"無障礙", "accessibility",
}

// Law-name validity tables. The filter is deliberately conservative:
// dropping a real law name beats emitting a sentence fragment.
var (
	lawSuffix = regexp.MustCompile(`(法|條例|辦法|規則|細則|要點|準則|綱要|規定|標準)$`)

	validLawPrefixes = []string{
		"勞動", "勞工", "勞保", "勞退", "勞基",
		"職業", "職安", "職災",
		"工會", "工廠", "工資",
		"就業", "就服",
		"性別", "性平",
		"保險", "保護",
		"安全", "衛生",
		"退休", "資遣",
		"民", "刑", "行政",
	}

	invalidLawPrefixes = []string{
		"依", "按", "次依", "又", "如", "即", "並", "則",
		"係", "為", "有", "含", "下稱", "上開", "適用",
		"事業", "雇主", "勞雇", "工作者", "比照",
	}

	fragmentPatterns = []string{"（下稱", "下稱", "係指", "規定，"}
)

var (
	htmlTag     = regexp.MustCompile(`<[^>]+>`)
	spaceRun    = regexp.MustCompile(`\s+`)
	blankRun    = regexp.MustCompile(`\n{3,}`)
	symbolsOnly = regexp.MustCompile(`^[\-=_\*\#]+$`)
)

// Formatter renders records to plaintext.
type Formatter struct {
	logger *zap.Logger
}

// NewFormatter returns a Formatter.
func NewFormatter(logger *zap.Logger) *Formatter {
	return &Formatter{logger: logger}
}

// Format renders one record. A record with no category and no valid laws
// yields only source, question, and answer lines with no dangling
// separators.
func (f *Formatter) Format(rec *faq.Record) string {
	var lines []string

	if name := rec.Source.DisplayName(); name != "" {
		lines = append(lines, "來源: "+name)
	}
	if rec.Category != "" {
		if rec.Subcategory != "" && rec.Subcategory != rec.Category {
			lines = append(lines, fmt.Sprintf("分類: %s > %s", rec.Category, rec.Subcategory))
		} else {
			lines = append(lines, "分類: "+rec.Category)
		}
	}
	if strings.Contains(rec.CategoryPath, ">") {
		lines = append(lines, "路徑: "+rec.CategoryPath)
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}

	if q := cleanText(rec.Question); q != "" {
		lines = append(lines, "問: "+q, "")
	}
	if a := cleanContent(rec.Answer.Text); a != "" {
		lines = append(lines, "答: "+a)
	}

	if laws := validLawNames(rec.RelatedLaws); len(laws) > 0 {
		lines = append(lines, "", "相關法規: "+strings.Join(laws, ", "))
	}

	return strings.Join(lines, "\n")
}

func validLawNames(laws []faq.RelatedLaw) []string {
	var names []string
	seen := make(map[string]bool)
	for _, law := range laws {
		name := cleanText(law.Name)
		if !IsValidLawName(name) || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// cleanText strips tags and collapses whitespace to single spaces.
func cleanText(text string) string {
	text = htmlTag.ReplaceAllString(text, "")
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// cleanContent strips tags and drops page-chrome lines while preserving
// paragraph structure. Idempotent on its own output.
func cleanContent(text string) string {
	text = htmlTag.ReplaceAllString(text, "")

	var cleaned []string
	prevEmpty := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !prevEmpty {
				cleaned = append(cleaned, "")
			}
			prevEmpty = true
			continue
		}
		if isNoiseLine(line) || utf8.RuneCountInString(line) <= 2 || symbolsOnly.MatchString(line) {
			continue
		}
		cleaned = append(cleaned, line)
		prevEmpty = false
	}

	result := strings.Join(cleaned, "\n")
	result = blankRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func isNoiseLine(line string) bool {
	for _, kw := range noiseKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// IsValidLawName applies the heuristic filter: 3-25 runes, a legal-document
// suffix, and a plausible opening.
func IsValidLawName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < 3 || n > 25 {
		return false
	}
	if !lawSuffix.MatchString(name) {
		return false
	}
	for _, p := range invalidLawPrefixes {
		if strings.HasPrefix(name, p) {
			return false
		}
	}
	for _, p := range validLawPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, p := range fragmentPatterns {
		if strings.Contains(name, p) {
			return false
		}
	}
	return true
}

// BatchStats summarizes one FormatBatch run.
type BatchStats struct {
	TotalItems   int
	CreatedFiles int
	OutputDir    string
}

// FormatBatch writes one <id>.txt per record to outputDir. Per-record
// failures are logged and skipped; the batch continues.
func (f *Formatter) FormatBatch(records []*faq.Record, outputDir string) (*BatchStats, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outputDir, err)
	}

	stats := &BatchStats{TotalItems: len(records), OutputDir: outputDir}
	for _, rec := range records {
		if rec.ID == "" {
			f.logger.Warn("skipping record without id", zap.String("question", rec.Question))
			continue
		}
		path := filepath.Join(outputDir, rec.ID+".txt")
		if err := os.WriteFile(path, []byte(f.Format(rec)), 0o600); err != nil {
			f.logger.Error("write plaintext file", zap.String("path", path), zap.Error(err))
			continue
		}
		stats.CreatedFiles++
	}

	f.logger.Info("plaintext batch written",
		zap.Int("total", stats.TotalItems),
		zap.Int("created", stats.CreatedFiles),
		zap.String("output_dir", outputDir),
	)
	return stats, nil
}
