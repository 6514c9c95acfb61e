package audit

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// containsMarkup reports whether doc has anything an HTML renderer would
// treat as a tag. Entities that only escape text do not count.
func containsMarkup(doc string) bool {
	return html.UnescapeString(strict.Sanitize(doc)) != doc
}
