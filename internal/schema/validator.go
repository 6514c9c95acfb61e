package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ogloszenia/opportunity-board/internal/models"
)

// Submission field names.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldThumbnail   = "thumbnail"
	FieldLocation    = "location"
	FieldLat         = "lat"
	FieldLon         = "lon"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldOrganizer   = "organizer"
)

// requiredFields is the reporting order for missing fields. FieldLocation
// stands for "location, or both lat and lon".
var requiredFields = []string{
	FieldTitle, FieldDescription, FieldTags, FieldThumbnail, FieldLocation,
	FieldStartDate, FieldEndDate, FieldWorkload, FieldForm, FieldOrganizer,
}

var stringFields = []string{
	FieldTitle, FieldDescription, FieldThumbnail, FieldLocation,
	FieldStartDate, FieldEndDate, FieldOrganizer,
}

// Validator checks submissions against the required-field set and the
// multi-select vocabularies.
type Validator struct {
	Vocabulary *Vocabulary
}

func NewValidator(vocab *Vocabulary) *Validator {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Validator{Vocabulary: vocab}
}

// Validate returns nil for a valid submission, otherwise a *ValidationError.
// Missing fields are reported alone; type and vocabulary problems are all
// collected.
func (v *Validator) Validate(data map[string]any) error {
	if missing := missingFields(data); len(missing) > 0 {
		return &ValidationError{Problems: []Problem{{Kind: MissingFields, Values: missing}}}
	}

	var problems []Problem
	for _, field := range MultiSelectFields {
		items, ok := data[field].([]any)
		if !ok {
			problems = append(problems, Problem{Kind: WrongType, Field: field})
			continue
		}
		var invalid []string
		for _, item := range items {
			s, isString := item.(string)
			if !isString || !v.Vocabulary.Contains(field, s) {
				invalid = append(invalid, fmt.Sprint(item))
			}
		}
		if len(invalid) > 0 {
			problems = append(problems, Problem{Kind: InvalidEnumValue, Field: field, Values: invalid})
		}
	}

	for _, field := range stringFields {
		raw, present := data[field]
		if !present {
			continue
		}
		if _, ok := raw.(string); !ok {
			problems = append(problems, Problem{Kind: WrongType, Field: field})
		}
	}

	for _, field := range []string{FieldLat, FieldLon} {
		raw, present := data[field]
		if !present {
			continue
		}
		if _, ok := toFloat(raw); !ok {
			problems = append(problems, Problem{Kind: WrongType, Field: field})
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Decode validates data and converts it into an Opportunity.
func (v *Validator) Decode(data map[string]any) (*models.Opportunity, error) {
	if err := v.Validate(data); err != nil {
		return nil, err
	}

	opp := &models.Opportunity{
		Title:       stringValue(data, FieldTitle),
		Description: stringValue(data, FieldDescription),
		Thumbnail:   stringValue(data, FieldThumbnail),
		Location:    stringValue(data, FieldLocation),
		StartDate:   stringValue(data, FieldStartDate),
		EndDate:     stringValue(data, FieldEndDate),
		Organizer:   stringValue(data, FieldOrganizer),
		Tags:        stringList(data, FieldTags),
		Workload:    stringList(data, FieldWorkload),
		Form:        stringList(data, FieldForm),
	}
	if lat, ok := toFloat(data[FieldLat]); ok {
		opp.Lat = &lat
	}
	if lon, ok := toFloat(data[FieldLon]); ok {
		opp.Lon = &lon
	}
	return opp, nil
}

func missingFields(data map[string]any) []string {
	var missing []string
	for _, field := range requiredFields {
		if field == FieldLocation {
			if hasKey(data, FieldLocation) || (hasKey(data, FieldLat) && hasKey(data, FieldLon)) {
				continue
			}
			missing = append(missing, field)
			continue
		}
		if !hasKey(data, field) {
			missing = append(missing, field)
		}
	}
	return missing
}

func hasKey(data map[string]any, key string) bool {
	_, ok := data[key]
	return ok
}

func stringValue(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func stringList(data map[string]any, key string) []string {
	items, _ := data[key].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// toFloat accepts JSON numbers and numeric strings; some clients post
// coordinates as text.
func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
