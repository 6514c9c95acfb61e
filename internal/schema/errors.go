package schema

import (
	"fmt"
	"strings"
)

// ProblemKind classifies a submission problem.
type ProblemKind string

const (
	MissingFields    ProblemKind = "missing_fields"
	WrongType        ProblemKind = "wrong_type"
	InvalidEnumValue ProblemKind = "invalid_enum_value"
)

// Problem is one reason a submission was rejected. For MissingFields, Values
// holds the absent field names; for InvalidEnumValue, the offending values.
type Problem struct {
	Kind   ProblemKind `json:"kind"`
	Field  string      `json:"field,omitempty"`
	Values []string    `json:"values,omitempty"`
}

func (p Problem) String() string {
	switch p.Kind {
	case MissingFields:
		return "Missing fields: " + strings.Join(p.Values, ", ")
	case WrongType:
		if isMultiSelect(p.Field) {
			return p.Field + " must be a list."
		}
		return p.Field + " has the wrong type."
	case InvalidEnumValue:
		return fmt.Sprintf("Invalid values in %s: %s", p.Field, strings.Join(p.Values, ", "))
	}
	return string(p.Kind)
}

// ValidationError collects every problem found in a submission.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.String())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether the error contains a problem of the given kind.
func (e *ValidationError) Has(kind ProblemKind) bool {
	for _, p := range e.Problems {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

func isMultiSelect(field string) bool {
	for _, f := range MultiSelectFields {
		if f == field {
			return true
		}
	}
	return false
}
