// Package osha crawls the Occupational Safety and Health Administration
// FAQ: a multi-level category tree whose terminal nodes are either listing
// pages or single articles, discovered before any record is fetched.
package osha

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
	"github.com/twgovdata/laborfaq/internal/fetch"
	"github.com/twgovdata/laborfaq/internal/source/htmltext"
)

// faqPath scopes discovery to the FAQ section of the site.
const faqPath = "/48110/48461/48463/"

// maxDepth bounds category recursion.
const maxDepth = 5

// navKeywords mark navigation chrome links skipped during discovery.
var navKeywords = []string{
	"回上", "列印", "轉寄", "分享", "首頁", "導覽",
	"English", "小", "中", "大", "搜尋", "進階",
}

// listNavKeywords mark chrome links skipped while parsing list pages.
var listNavKeywords = []string{"回上", "列印", "轉寄", "分享", "首頁", "上一頁", "下一頁"}

var (
	departmentPattern    = regexp.MustCompile(`發布單位[：:]\s*(\S+)`)
	publishedDatePattern = regexp.MustCompile(`發布日期[：:]\s*(\d{4}-\d{2}-\d{2})`)
	updatedDatePattern   = regexp.MustCompile(`更新日期[：:]\s*(\d{4}-\d{2}-\d{2})`)
)

// Crawler implements the multi-level crawl contract for the OSHA FAQ. It
// owns a fetch client because discovery itself issues requests.
type Crawler struct {
	baseURL  string
	indexURL string
	client   *fetch.Client
	logger   *zap.Logger
}

// New returns a Crawler rooted at indexURL.
func New(baseURL, indexURL string, client *fetch.Client, logger *zap.Logger) *Crawler {
	return &Crawler{baseURL: baseURL, indexURL: indexURL, client: client, logger: logger}
}

// Source returns the OSHA tag.
func (c *Crawler) Source() faq.Source { return faq.SourceOSHA }

// Discover walks the category tree from the index page with an explicit
// worklist, collecting terminal endpoints. The visited set prevents cycles
// and endpoints are deduplicated by absolute URL across the whole
// traversal.
func (c *Crawler) Discover(ctx context.Context) ([]faq.Endpoint, error) {
	type task struct {
		url   string
		depth int
	}

	var endpoints []faq.Endpoint
	visited := map[string]bool{}
	seen := map[string]bool{}
	stack := []task{{url: c.indexURL}}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[t.url] {
			continue
		}
		if t.depth > maxDepth {
			c.logger.Warn("category recursion depth exceeded", zap.String("url", t.url))
			continue
		}
		visited[t.url] = true

		resp, err := c.client.Get(ctx, t.url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("discover categories: %w", ctx.Err())
			}
			c.logger.Warn("category page fetch failed", zap.String("url", t.url), zap.Error(err))
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			c.logger.Warn("category page unparseable", zap.String("url", t.url), zap.Error(err))
			continue
		}

		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			name := faq.CleanText(a.Text())
			if name == "" || href == "" {
				return
			}
			if containsAny(name, navKeywords) || !strings.Contains(href, faqPath) {
				return
			}

			full := faq.NormalizeURL(c.baseURL, href)
			switch {
			case strings.Contains(href, "lpsimplelist"):
				if !seen[full] {
					seen[full] = true
					endpoints = append(endpoints, faq.Endpoint{Name: name, URL: full, Type: faq.EndpointList})
				}
			case strings.HasSuffix(href, "/post"):
				if !seen[full] {
					seen[full] = true
					endpoints = append(endpoints, faq.Endpoint{Name: name, URL: full, Type: faq.EndpointArticle})
				}
			case strings.Contains(href, "nodelist"):
				if !visited[full] {
					stack = append(stack, task{url: full, depth: t.depth + 1})
				}
			}
		})
	}

	c.logger.Info("category discovery complete",
		zap.Int("endpoints", len(endpoints)),
		zap.Int("pages_visited", len(visited)),
	)
	return endpoints, nil
}

// ParseList extracts partial records from a listing endpoint. Candidate
// anchors must point at a detail page under the FAQ path and sit in a block
// that carries publication metadata.
func (c *Crawler) ParseList(body []byte) ([]*faq.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse list page: %w", err)
	}

	content := doc.Selection
	for _, sel := range []string{"div.page_content", "div.content", "main", "article"} {
		if area := doc.Find(sel).First(); area.Length() > 0 {
			content = area
			break
		}
	}

	var items []*faq.Record
	content.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		title := faq.CleanText(a.Text())
		if href == "" || title == "" {
			return
		}
		if !strings.HasSuffix(href, "/post") || !strings.Contains(href, faqPath) {
			return
		}
		if containsAny(title, listNavKeywords) {
			return
		}

		blockText := a.Parent().Parent().Text()
		if !strings.Contains(blockText, "發布單位") &&
			!strings.Contains(blockText, "更新日期") &&
			!strings.Contains(blockText, "發布日期") {
			return
		}

		rec := &faq.Record{
			Source:    faq.SourceOSHA,
			Question:  title,
			DetailURL: faq.NormalizeURL(c.baseURL, href),
		}
		if m := departmentPattern.FindStringSubmatch(blockText); m != nil {
			rec.Metadata.Department = m[1]
		}
		if m := publishedDatePattern.FindStringSubmatch(blockText); m != nil {
			rec.Metadata.PublishedDate = faq.ParseDate(m[1])
		}
		if m := updatedDatePattern.FindStringSubmatch(blockText); m != nil {
			rec.Metadata.UpdatedDate = faq.ParseDate(m[1])
		}
		items = append(items, rec)
	})

	c.logger.Debug("list page parsed", zap.Int("items", len(items)))
	return items, nil
}

// ParseDetail merges the detail page into the partial record.
func (c *Crawler) ParseDetail(body []byte, partial *faq.Record) *faq.Record {
	rec := *partial
	rec.Source = faq.SourceOSHA

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("detail page unparseable", zap.String("url", rec.DetailURL), zap.Error(err))
		return &rec
	}

	question := doc.Find("h2").First()
	if question.Length() == 0 {
		question = doc.Find("h1").First()
	}
	if q := faq.CleanText(question.Text()); q != "" {
		rec.Question = q
	}

	content := findContent(doc, question)
	if content.Length() > 0 {
		answerArea := content.Find("ol, ul, div").First()
		if answerArea.Length() == 0 {
			answerArea = content
		}
		answerText := htmltext.StripQuestion(htmltext.Flatten(answerArea), rec.Question)
		rec.Answer = faq.Answer{
			Text: answerText,
			HTML: htmltext.Snippet(answerArea, faq.MaxAnswerHTMLLen),
		}
		rec.RelatedLaws = faq.MergeLaws(
			htmltext.LinkedLaws(content, c.baseURL),
			faq.ExtractLawNames(answerText),
		)
	} else {
		c.logger.Warn("no content area found", zap.String("url", rec.DetailURL))
		rec.Answer = faq.Answer{}
		rec.RelatedLaws = nil
	}

	if rec.Category == "" {
		rec.Category = rec.Subcategory
	}
	return &rec
}

// findContent tries article, then the question heading's nearest ancestor
// holding answer content, then main.
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
		if p.Find("p, ol, ul").Length() >= 1 {
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

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
