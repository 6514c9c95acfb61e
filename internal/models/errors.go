package models

import "errors"

// Collaborator failure kinds. They are matched with errors.Is against a
// *CollaboratorError.
var (
	ErrEmbedding  = errors.New("embedding error")
	ErrStoreWrite = errors.New("store write error")
	ErrStoreRead  = errors.New("store read error")
)

// CollaboratorError reports a failed call to the embedding provider or the
// vector store. Error returns the collaborator's own message so callers see
// it verbatim.
type CollaboratorError struct {
	Kind error
	Err  error
}

func NewCollaboratorError(kind, err error) *CollaboratorError {
	return &CollaboratorError{Kind: kind, Err: err}
}

func (e *CollaboratorError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func (e *CollaboratorError) Is(target error) bool {
	return target == e.Kind
}
