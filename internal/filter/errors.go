package filter

// InvalidFilterValueError rejects a query whose multi-select filter is not a
// member of its vocabulary. Allowed carries the full vocabulary for the
// caller.
type InvalidFilterValueError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidFilterValueError) Error() string {
	return "Invalid " + e.Field
}
