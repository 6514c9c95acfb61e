// Package audit checks stored records against the rules new submissions
// must follow, for collections written by older clients.
package audit

import (
	"fmt"

	"github.com/ogloszenia/opportunity-board/internal/filter"
	"github.com/ogloszenia/opportunity-board/internal/models"
	"github.com/ogloszenia/opportunity-board/internal/schema"
)

type Finding struct {
	ID     string
	Field  string
	Detail string
}

type Report struct {
	Total         int
	BadDates      int
	OffVocabulary int
	Markup        int
	Findings      []Finding
}

// Clean reports whether no record had a problem.
func (r Report) Clean() bool {
	return len(r.Findings) == 0
}

var dateKeys = []string{models.MetaStartDate, models.MetaEndDate}

var multiSelectKeys = map[string]string{
	models.MetaTags:     schema.FieldTags,
	models.MetaWorkload: schema.FieldWorkload,
	models.MetaForm:     schema.FieldForm,
}

// Check counts records whose dates cannot be parsed by the query filter,
// whose multi-select metadata contains values outside vocab, or whose
// document contains HTML markup. A record with several problems is counted
// once per category.
func Check(records []models.StoredRecord, vocab *schema.Vocabulary) Report {
	report := Report{Total: len(records)}

	for _, rec := range records {
		badDate := false
		for _, key := range dateKeys {
			raw := fmt.Sprint(rec.Metadata[key])
			if _, ok := filter.ParseDate(raw); !ok {
				badDate = true
				report.Findings = append(report.Findings, Finding{ID: rec.ID, Field: key, Detail: "unparseable date " + raw})
			}
		}
		if badDate {
			report.BadDates++
		}

		offVocab := false
		for _, key := range []string{models.MetaTags, models.MetaWorkload, models.MetaForm} {
			joined, _ := rec.Metadata[key].(string)
			if _, ok := vocab.SplitJoined(multiSelectKeys[key], joined); !ok {
				offVocab = true
				report.Findings = append(report.Findings, Finding{ID: rec.ID, Field: key, Detail: "unknown value in " + joined})
			}
		}
		if offVocab {
			report.OffVocabulary++
		}

		if containsMarkup(rec.Document) {
			report.Markup++
			report.Findings = append(report.Findings, Finding{ID: rec.ID, Field: "document", Detail: "contains markup"})
		}
	}
	return report
}
