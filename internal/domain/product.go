package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in the store currency.
type Amount = decimal.Decimal

// ParseTags splits a comma-separated tag field, trimming each tag and
// dropping empty entries.
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// HasTag reports whether tag is present among tags (exact match).
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
