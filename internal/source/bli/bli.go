// Package bli parses the Bureau of Labor Insurance FAQ: one page holding a
// nested tree menu whose leaves are the FAQ entries.
package bli

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
	"github.com/twgovdata/laborfaq/internal/source/htmltext"
)

// Site implements the single-tree crawl contract for the BLI FAQ.
type Site struct {
	baseURL string
	listURL string
	logger  *zap.Logger
}

// New returns a Site for the given base and list URLs.
func New(baseURL, listURL string, logger *zap.Logger) *Site {
	return &Site{baseURL: baseURL, listURL: listURL, logger: logger}
}

// Source returns the BLI tag.
func (s *Site) Source() faq.Source { return faq.SourceBLI }

// ListURL returns the tree page address; the whole menu arrives in one
// request regardless of page.
func (s *Site) ListURL(int) string { return s.listURL }

// ParseList walks the nested menu depth-first. Placeholder links mark
// category nodes, which extend the accumulated path and are never emitted;
// real hrefs are leaves.
func (s *Site) ParseList(body []byte) ([]*faq.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse tree page: %w", err)
	}

	root := doc.Find("div.content ul.multilevel-list").First()
	if root.Length() == 0 {
		root = doc.Find("div.content ul").First()
	}
	if root.Length() == 0 {
		s.logger.Warn("no tree root found on list page")
		return nil, nil
	}

	var items []*faq.Record
	s.walk(root, nil, &items)
	s.logger.Debug("tree parsed", zap.Int("items", len(items)))
	return items, nil
}

func (s *Site) walk(ul *goquery.Selection, path []string, items *[]*faq.Record) {
	ul.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		link := li.ChildrenFiltered("a").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		text := faq.CleanText(link.Text())
		if text == "" {
			return
		}

		if href == "" || strings.Contains(href, "javascript:void(0)") {
			// Category node: recurse into its own list, if any.
			if sub := li.ChildrenFiltered("ul").First(); sub.Length() > 0 {
				s.walk(sub, append(append([]string{}, path...), text), items)
			}
			return
		}

		rec := &faq.Record{
			Source:       faq.SourceBLI,
			Question:     text,
			DetailURL:    faq.NormalizeURL(s.baseURL, href),
			CategoryPath: strings.Join(path, " > "),
		}
		if len(path) >= 1 {
			rec.Category = path[0]
		}
		if len(path) >= 2 {
			rec.Subcategory = path[1]
		}
		*items = append(*items, rec)
	})
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`發布日期[：:]?\s*(\d{4}[-/]\d{2}[-/]\d{2})`),
	regexp.MustCompile(`更新日期[：:]?\s*(\d{4}[-/]\d{2}[-/]\d{2})`),
	regexp.MustCompile(`(\d{4}[-/]\d{2}[-/]\d{2})`),
}

// ParseDetail merges the detail page into the partial record. The page
// carries no structured date field, so the update date is recovered from
// free text.
func (s *Site) ParseDetail(body []byte, partial *faq.Record) *faq.Record {
	rec := *partial
	rec.Source = faq.SourceBLI

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("detail page unparseable", zap.String("url", rec.DetailURL), zap.Error(err))
		return &rec
	}

	question := doc.Find("h1").First()
	if question.Length() == 0 {
		question = doc.Find("h2").First()
	}
	if q := faq.CleanText(question.Text()); q != "" {
		rec.Question = q
	}

	var content *goquery.Selection
	for _, sel := range []string{"div.main", "div.content", "article", "main"} {
		if c := doc.Find(sel).First(); c.Length() > 0 {
			content = c
			break
		}
	}
	if content != nil {
		answerText := htmltext.StripQuestion(htmltext.Flatten(content), rec.Question)
		rec.Answer = faq.Answer{
			Text: answerText,
			HTML: htmltext.Snippet(content, faq.MaxAnswerHTMLLen),
		}
		rec.RelatedLaws = faq.MergeLaws(
			htmltext.LinkedLaws(content, s.baseURL),
			faq.ExtractLawNames(answerText),
		)
	} else {
		s.logger.Warn("no content area found", zap.String("url", rec.DetailURL))
		rec.Answer = faq.Answer{}
		rec.RelatedLaws = nil
	}

	pageText := doc.Text()
	for _, pat := range datePatterns {
		if m := pat.FindStringSubmatch(pageText); m != nil {
			rec.Metadata.UpdatedDate = faq.ParseDate(strings.ReplaceAll(m[1], "/", "-"))
			break
		}
	}
	return &rec
}
