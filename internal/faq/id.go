package faq

import (
	"fmt"
	"strings"
)

// GenerateID builds a record identifier from its source, resolved date, and
// per-date sequence number. Pure and deterministic: identical inputs always
// yield the same ID.
func GenerateID(source Source, date string, seq int) string {
	bucket := strings.ReplaceAll(date, "-", "")
	return fmt.Sprintf("%s_faq_%s_%04d", source, bucket, seq)
}

// AssignIDs stamps IDs over a finished batch in collection order, keeping
// one counter per resolved date. Order-dependent on purpose: re-crawling in
// a different traversal order reassigns IDs.
func AssignIDs(source Source, records []*Record) {
	counters := make(map[string]int)
	for _, rec := range records {
		date := rec.ResolvedDate()
		counters[date]++
		rec.ID = GenerateID(source, date, counters[date])
	}
}
