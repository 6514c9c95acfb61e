package ingest

import (
	"strings"

	"github.com/ogloszenia/opportunity-board/internal/models"
)

// BuildMetadata flattens an opportunity into the store's metadata mapping.
// Multi-select values are joined; dates are kept as submitted.
func BuildMetadata(opp *models.Opportunity) map[string]any {
	return map[string]any{
		models.MetaTitle:     opp.Title,
		models.MetaTags:      strings.Join(opp.Tags, models.MultiValueSeparator),
		models.MetaThumbnail: opp.Thumbnail,
		models.MetaLocation:  opp.Location,
		models.MetaStartDate: opp.StartDate,
		models.MetaEndDate:   opp.EndDate,
		models.MetaWorkload:  strings.Join(opp.Workload, models.MultiValueSeparator),
		models.MetaForm:      strings.Join(opp.Form, models.MultiValueSeparator),
		models.MetaOrganizer: opp.Organizer,
	}
}
