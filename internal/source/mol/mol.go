// Package mol parses the Ministry of Labor FAQ: a flat paginated table of
// questions, each linking to a detail page.
package mol

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
	"github.com/twgovdata/laborfaq/internal/source/htmltext"
)

// Site implements the paginated crawl contract for the MOL FAQ.
type Site struct {
	baseURL string
	listURL string
	logger  *zap.Logger
}

// New returns a Site for the given base and list URLs.
func New(baseURL, listURL string, logger *zap.Logger) *Site {
	return &Site{baseURL: baseURL, listURL: listURL, logger: logger}
}

// Source returns the MOL tag.
func (s *Site) Source() faq.Source { return faq.SourceMOL }

// ListURL returns the list page address. The site paginates through query
// state on a single URL.
func (s *Site) ListURL(page int) string {
	if page <= 1 {
		return s.listURL
	}
	sep := "?"
	if strings.Contains(s.listURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", s.listURL, sep, page)
}

// ParseList extracts partial records from the first table. Rows need at
// least six cells (index, title+link, subcategory, department, published,
// updated); short rows and rows without a link are dropped silently.
func (s *Site) ParseList(body []byte) ([]*faq.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse list page: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		s.logger.Warn("no table found on list page")
		return nil, nil
	}

	var items []*faq.Record
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		link := cells.Eq(1).Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		items = append(items, &faq.Record{
			Source:      faq.SourceMOL,
			Question:    faq.CleanText(link.Text()),
			Subcategory: faq.CleanText(cells.Eq(2).Text()),
			DetailURL:   faq.NormalizeURL(s.baseURL, href),
			Metadata: faq.Metadata{
				Department:    faq.CleanText(cells.Eq(3).Text()),
				PublishedDate: faq.ParseDate(cells.Eq(4).Text()),
				UpdatedDate:   faq.ParseDate(cells.Eq(5).Text()),
			},
		})
	})

	s.logger.Debug("list page parsed", zap.Int("items", len(items)))
	return items, nil
}

// ParseDetail merges the detail page into the partial record. Parse
// failures degrade to empty answer fields, never abort the record.
func (s *Site) ParseDetail(body []byte, partial *faq.Record) *faq.Record {
	rec := *partial
	rec.Source = faq.SourceMOL

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("detail page unparseable", zap.String("url", rec.DetailURL), zap.Error(err))
		return &rec
	}

	question := doc.Find("h2").First()
	if q := faq.CleanText(question.Text()); q != "" {
		rec.Question = q
	}

	content := findContent(doc, question)
	if content.Length() > 0 {
		answerText, answerHTML := extractAnswer(content, rec.Question)
		rec.Answer = faq.Answer{Text: answerText, HTML: answerHTML}
		rec.RelatedLaws = faq.MergeLaws(
			htmltext.LinkedLaws(content, s.baseURL),
			faq.ExtractLawNames(answerText),
		)
	} else {
		s.logger.Warn("no content area found", zap.String("url", rec.DetailURL))
		rec.Answer = faq.Answer{}
		rec.RelatedLaws = nil
	}

	if cat := breadcrumbCategory(doc); cat != "" {
		rec.Category = cat
	}
	if rec.Category == "" {
		rec.Category = rec.Subcategory
	}
	return &rec
}

// findContent tries article, then the question heading's nearest ancestor
// holding prose, then main.
func findContent(doc *goquery.Document, question *goquery.Selection) *goquery.Selection {
	if article := doc.Find("article").First(); article.Length() > 0 {
		return article
	}
	var found *goquery.Selection
	question.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		name := goquery.NodeName(p)
		if name == "body" || name == "html" {
			return false
		}
		if p.Find("p").Length() >= 1 {
			found = p
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	return doc.Find("main").First()
}

// extractAnswer prefers the cell after a 答案 header when the content area
// holds a table; otherwise it flattens the whole area and strips the first
// occurrence of the question.
func extractAnswer(content *goquery.Selection, question string) (string, string) {
	if table := content.Find("table").First(); table.Length() > 0 {
		var answerTh *goquery.Selection
		table.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
			if strings.Contains(th.Text(), "答案") {
				answerTh = th
				return false
			}
			return true
		})
		if answerTh != nil {
			td := answerTh.Parent().Find("td").First()
			if td.Length() > 0 {
				return htmltext.Flatten(td), htmltext.Snippet(td, faq.MaxAnswerHTMLLen)
			}
		}
	}

	text := htmltext.StripQuestion(htmltext.Flatten(content), question)
	return text, htmltext.Snippet(content, faq.MaxAnswerHTMLLen)
}

// breadcrumbCategory takes the second-to-last breadcrumb anchor unless it
// is the FAQ landing label itself.
func breadcrumbCategory(doc *goquery.Document) string {
	crumbs := doc.Find(".breadcrumb a, nav a")
	if crumbs.Length() < 2 {
		return ""
	}
	cat := faq.CleanText(crumbs.Eq(crumbs.Length() - 2).Text())
	if cat == "常見問答" {
		return ""
	}
	return cat
}
