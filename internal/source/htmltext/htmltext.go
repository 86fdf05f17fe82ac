// Package htmltext holds the extraction helpers shared by the per-source
// parsers: text flattening, bounded markup snapshots, and hyperlink law
// harvesting.
package htmltext

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/twgovdata/laborfaq/internal/faq"
)

// Flatten joins the trimmed text nodes under sel with newlines, preserving
// line structure that a plain Text() call would collapse.
func Flatten(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, "\n")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// Snippet returns sel's outer markup truncated to at most max bytes on a
// rune boundary.
func Snippet(sel *goquery.Selection, max int) string {
	raw, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	if len(raw) <= max {
		return raw
	}
	for max > 0 && !utf8.RuneStart(raw[max]) {
		max--
	}
	return raw[:max]
}

// LinkedLaws collects anchors under sel whose text names a legal document,
// resolving hrefs against base.
func LinkedLaws(sel *goquery.Selection, base string) []faq.RelatedLaw {
	var laws []faq.RelatedLaw
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		text := faq.CleanText(a.Text())
		if !faq.LooksLikeLawAnchor(text) {
			return
		}
		href, _ := a.Attr("href")
		laws = append(laws, faq.RelatedLaw{Name: text, URL: faq.NormalizeURL(base, href)})
	})
	return laws
}

// StripQuestion removes the first literal occurrence of the question from
// the answer text. Paraphrased or mid-quote duplicates are left alone.
func StripQuestion(answer, question string) string {
	if question == "" {
		return strings.TrimSpace(answer)
	}
	return strings.TrimSpace(strings.Replace(answer, question, "", 1))
}
