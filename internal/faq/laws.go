package faq

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LawAnchorStems are the keyword stems that mark a hyperlink as a legal
// reference.
var LawAnchorStems = []string{"法", "辦法", "規則", "條例", "細則"}

// LooksLikeLawAnchor reports whether anchor text names a legal document.
func LooksLikeLawAnchor(text string) bool {
	for _, stem := range LawAnchorStems {
		if strings.Contains(text, stem) {
			return true
		}
	}
	return false
}

var (
	// lawStemPattern matches phrases ending in 法. RE2 has no lookahead, so
	// 法律 and 法規 continuations are rejected by checking the next rune.
	lawStemPattern = regexp.MustCompile(`[^。，\n]{2,30}法`)

	lawSuffixPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[^。，\n]{2,30}辦法`),
		regexp.MustCompile(`[^。，\n]{2,30}規則`),
		regexp.MustCompile(`[^。，\n]{2,30}條例`),
	}
)

// ExtractLawNames scans free text for law-like phrases, preserving first
// occurrence order and deduplicating.
func ExtractLawNames(text string) []string {
	var names []string
	seen := make(map[string]bool)

	add := func(name string) {
		name = strings.TrimSpace(name)
		if utf8.RuneCountInString(name) <= 3 || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, loc := range lawStemPattern.FindAllStringIndex(text, -1) {
		next, _ := utf8.DecodeRuneInString(text[loc[1]:])
		if next == '律' || next == '規' {
			continue
		}
		add(text[loc[0]:loc[1]])
	}
	for _, pat := range lawSuffixPatterns {
		for _, m := range pat.FindAllString(text, -1) {
			add(m)
		}
	}
	return names
}

// MergeLaws combines hyperlink-derived laws with free-text names, keeping
// link URLs and deduplicating by name.
func MergeLaws(linked []RelatedLaw, names []string) []RelatedLaw {
	var merged []RelatedLaw
	seen := make(map[string]bool)
	for _, law := range linked {
		name := strings.TrimSpace(law.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, RelatedLaw{Name: name, URL: law.URL})
	}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, RelatedLaw{Name: name})
	}
	return merged
}
