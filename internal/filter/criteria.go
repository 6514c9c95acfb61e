package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/schema"
)

// Criteria are the optional filters of a query. Empty strings and nil
// bounds are inactive.
type Criteria struct {
	Title    string
	Location string
	Tags     string
	Form     string
	Workload string

	StartFrom *time.Time
	StartTo   *time.Time
	EndFrom   *time.Time
	EndTo     *time.Time
}

type fieldFilter struct {
	metaKey string
	value   string
}

func (c Criteria) fieldFilters() []fieldFilter {
	return []fieldFilter{
		{models.MetaTitle, c.Title},
		{models.MetaLocation, c.Location},
		{models.MetaTags, c.Tags},
		{models.MetaForm, c.Form},
		{models.MetaWorkload, c.Workload},
	}
}

// Validate checks the multi-select filters against vocab, workload first,
// then form, then tags.
func (c Criteria) Validate(vocab *schema.Vocabulary) error {
	checks := []struct {
		field string
		value string
	}{
		{schema.FieldWorkload, c.Workload},
		{schema.FieldForm, c.Form},
		{schema.FieldTags, c.Tags},
	}
	for _, check := range checks {
		if check.value == "" || vocab.Contains(check.field, check.value) {
			continue
		}
		return &InvalidFilterValueError{
			Field:   check.field,
			Value:   check.value,
			Allowed: vocab.Allowed(check.field),
		}
	}
	return nil
}

// Match reports whether a record's metadata satisfies every active filter.
func (c Criteria) Match(metadata map[string]any) bool {
	for _, f := range c.fieldFilters() {
		if f.value == "" {
			continue
		}
		raw, ok := metadata[f.metaKey]
		if !ok || !containsFold(fmt.Sprint(raw), f.value) {
			return false
		}
	}

	if c.StartFrom != nil || c.StartTo != nil {
		start, ok := metadataDate(metadata, models.MetaStartDate)
		if !inRange(start, ok, c.StartFrom, c.StartTo) {
			return false
		}
	}
	if c.EndFrom != nil || c.EndTo != nil {
		end, ok := metadataDate(metadata, models.MetaEndDate)
		if !inRange(end, ok, c.EndFrom, c.EndTo) {
			return false
		}
	}
	return true
}

// Active reports whether any filter is set.
func (c Criteria) Active() bool {
	for _, f := range c.fieldFilters() {
		if f.value != "" {
			return true
		}
	}
	return c.StartFrom != nil || c.StartTo != nil || c.EndFrom != nil || c.EndTo != nil
}

// Apply keeps the matches that satisfy c, preserving their order.
func Apply(matches []models.Match, c Criteria) []models.Match {
	out := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if c.Match(m.Metadata) {
			out = append(out, m)
		}
	}
	return out
}

func metadataDate(metadata map[string]any, key string) (time.Time, bool) {
	raw, ok := metadata[key]
	if !ok {
		return time.Time{}, false
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(s)
}

func inRange(t time.Time, parsed bool, from, to *time.Time) bool {
	if from != nil && (!parsed || t.Before(*from)) {
		return false
	}
	if to != nil && (!parsed || t.After(*to)) {
		return false
	}
	return true
}

func containsFold(value, query string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(query))
}
