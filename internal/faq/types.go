// Package faq defines the record model shared by every stage of the
// pipeline, plus the ID, text, date, and law-name helpers the parsers use.
package faq

// Source identifies which agency a record was crawled from.
type Source string

// The three crawled agencies.
const (
	SourceMOL  Source = "mol"
	SourceBLI  Source = "bli"
	SourceOSHA Source = "osha"
)

// Valid reports whether s is a known source tag.
func (s Source) Valid() bool {
	switch s {
	case SourceMOL, SourceBLI, SourceOSHA:
		return true
	}
	return false
}

// Dir returns the per-source data directory name.
func (s Source) Dir() string {
	return string(s) + "_faq"
}

// DisplayName returns the agency's Chinese name for plaintext output.
func (s Source) DisplayName() string {
	switch s {
	case SourceMOL:
		return "勞動部"
	case SourceBLI:
		return "勞動部勞工保險局"
	case SourceOSHA:
		return "職業安全衛生署"
	}
	return string(s)
}

// RelatedLaw is one legal reference attached to a record. URL is empty for
// names recovered from free text rather than hyperlinks.
type RelatedLaw struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// MaxAnswerHTMLLen caps the raw markup snippet kept on a record.
const MaxAnswerHTMLLen = 10000

// Answer carries the flattened answer text and a bounded markup snapshot.
type Answer struct {
	Text string `json:"text"`
	HTML string `json:"html,omitempty"`
}

// Metadata holds the optional list-visible fields. Dates are YYYY-MM-DD or
// empty.
type Metadata struct {
	Department    string `json:"department,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	UpdatedDate   string `json:"updated_date,omitempty"`
}

// Record is one normalized FAQ entry. List parsing produces a partial
// record; detail parsing merges in the rest; the ID is assigned once per
// batch after the crawl.
type Record struct {
	ID             string       `json:"id"`
	Source         Source       `json:"source"`
	Question       string       `json:"question"`
	Answer         Answer       `json:"answer"`
	Category       string       `json:"category,omitempty"`
	Subcategory    string       `json:"subcategory,omitempty"`
	CategoryPath   string       `json:"category_path,omitempty"`
	RelatedLaws    []RelatedLaw `json:"related_laws,omitempty"`
	Metadata       Metadata     `json:"metadata"`
	DetailURL      string       `json:"detail_url,omitempty"`
	Page           int          `json:"page,omitempty"`
	WriteTimestamp string       `json:"_write_timestamp,omitempty"`
}

// ResolvedDate picks the date used for ID generation: updated, then
// published, then the literal unknown bucket.
func (r *Record) ResolvedDate() string {
	if r.Metadata.UpdatedDate != "" {
		return r.Metadata.UpdatedDate
	}
	if r.Metadata.PublishedDate != "" {
		return r.Metadata.PublishedDate
	}
	return "unknown"
}

// IndexDate is like ResolvedDate but empty when no date is known, so
// undated records stay out of the date index.
func (r *Record) IndexDate() string {
	if r.Metadata.UpdatedDate != "" {
		return r.Metadata.UpdatedDate
	}
	return r.Metadata.PublishedDate
}

// EndpointType classifies a terminal node found during category discovery.
type EndpointType string

// Endpoint kinds. Category nodes are recursed into, never retained.
const (
	EndpointList    EndpointType = "list"
	EndpointArticle EndpointType = "article"
)

// Endpoint is a terminal node of the multi-level category traversal.
type Endpoint struct {
	Name string
	URL  string
	Type EndpointType
}
