package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// Multi-select field names as they appear in a submission.
const (
	FieldTags     = "tags"
	FieldWorkload = "workload"
	FieldForm     = "form"
)

// MultiSelectFields lists the multi-select fields in validation order.
var MultiSelectFields = []string{FieldTags, FieldWorkload, FieldForm}

// Vocabulary holds the closed value sets of the multi-select fields.
type Vocabulary struct {
	Tags     []string `yaml:"tags" json:"tags"`
	Workload []string `yaml:"workload" json:"workload"`
	Form     []string `yaml:"form" json:"form"`

	index map[string]map[string]struct{}
}

// DefaultVocabulary returns the vocabulary embedded in the binary.
func DefaultVocabulary() *Vocabulary {
	v, err := parseVocabulary(defaultVocabularyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary is invalid: %v", err))
	}
	return v
}

// LoadVocabulary reads a vocabulary override from path. An empty path yields
// the embedded default.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	v, err := parseVocabulary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}
	return v, nil
}

func parseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	for _, field := range MultiSelectFields {
		if len(v.Allowed(field)) == 0 {
			return nil, fmt.Errorf("vocabulary for %s is empty", field)
		}
	}
	v.buildIndex()
	return &v, nil
}

func (v *Vocabulary) buildIndex() {
	v.index = make(map[string]map[string]struct{}, len(MultiSelectFields))
	for _, field := range MultiSelectFields {
		set := make(map[string]struct{})
		for _, value := range v.Allowed(field) {
			set[value] = struct{}{}
		}
		v.index[field] = set
	}
}

// Allowed returns the allowed values of field in declaration order.
func (v *Vocabulary) Allowed(field string) []string {
	switch field {
	case FieldTags:
		return v.Tags
	case FieldWorkload:
		return v.Workload
	case FieldForm:
		return v.Form
	}
	return nil
}

// Contains reports whether value is an exact member of field's vocabulary.
func (v *Vocabulary) Contains(field, value string) bool {
	if v.index == nil {
		for _, allowed := range v.Allowed(field) {
			if allowed == value {
				return true
			}
		}
		return false
	}
	_, ok := v.index[field][value]
	return ok
}

// SplitJoined undoes the ", " join applied to stored multi-select values.
// Vocabulary entries may themselves contain ", ", so pieces are merged until
// they form a known value. ok is false when something is left over.
func (v *Vocabulary) SplitJoined(field, joined string) (values []string, ok bool) {
	if joined == "" {
		return nil, true
	}
	var current string
	for _, part := range strings.Split(joined, ", ") {
		if current == "" {
			current = part
		} else {
			current += ", " + part
		}
		if v.Contains(field, current) {
			values = append(values, current)
			current = ""
		}
	}
	return values, current == ""
}
