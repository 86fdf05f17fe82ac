package faq

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanText collapses all whitespace runs to single spaces and trims the
// result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006年01月02日",
}

// ParseDate normalizes a scraped date string to YYYY-MM-DD. Unparseable
// input yields the empty string; dates are optional everywhere downstream.
func ParseDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// NormalizeURL resolves href against base, returning an absolute URL or
// empty on malformed input.
func NormalizeURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}
