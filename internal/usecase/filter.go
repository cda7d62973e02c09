package usecase

import (
	"strings"

	"FeedNotifier/internal/domain"
)

// ContentFilter rejects entries whose title (and optionally description)
// contains any denylisted term, compared lower-cased.
type ContentFilter struct {
	terms            []string
	matchDescription bool
}

// NewContentFilter normalises the denylist; blank terms are dropped.
func NewContentFilter(terms []string, matchDescription bool) *ContentFilter {
	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		normalized = append(normalized, term)
	}
	return &ContentFilter{terms: normalized, matchDescription: matchDescription}
}

// Allowed reports whether the entry may be delivered.
func (f *ContentFilter) Allowed(entry domain.Entry) bool {
	_, matched := f.Match(entry)
	return !matched
}

// Match returns the first denylisted term found in the entry.
func (f *ContentFilter) Match(entry domain.Entry) (string, bool) {
	if f == nil || len(f.terms) == 0 {
		return "", false
	}

	title := strings.ToLower(entry.Title)
	var description string
	if f.matchDescription {
		description = strings.ToLower(entry.Description)
	}

	for _, term := range f.terms {
		if strings.Contains(title, term) {
			return term, true
		}
		if f.matchDescription && strings.Contains(description, term) {
			return term, true
		}
	}
	return "", false
}
