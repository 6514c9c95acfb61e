package filter

import "time"

// dateLayouts are tried in order. The second layout is day:month:year and
// must stay as is: records written by older clients use it. Day and month
// accept one or two digits.
var dateLayouts = []string{
	"2006-1-2",
	"2:1:2006",
}

// ParseDate parses a stored or requested date. ok is false when no layout
// applies.
func ParseDate(text string) (t time.Time, ok bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// ParseBound parses an optional query bound. Empty or unparseable bounds are
// treated as not supplied. Surrounding whitespace makes a bound unparseable.
func ParseBound(text string) *time.Time {
	if text == "" {
		return nil
	}
	t, ok := ParseDate(text)
	if !ok {
		return nil
	}
	return &t
}
