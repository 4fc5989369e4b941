package birthday

import "errors"

// ErrNotFound covers a missing record id and the API's 404 on an
// empty listing. Terminal for the operation that hit it, never
// retried automatically.
var ErrNotFound = errors.New("not found")

// ConflictError is a domain-level rejection of submitted data with
// the offending field named, so a conversation can route back to the
// right input step. Field is "name" or "date".
type ConflictError struct {
	Field string
}

func (e ConflictError) Error() string {
	return "conflict on field " + e.Field
}

// TransportError is a network or HTTP-layer failure not attributable
// to user input. The active flow aborts; no automatic retry.
type TransportError struct {
	Err error
}

func (e TransportError) Error() string {
	return "transport failure: " + e.Err.Error()
}

func (e TransportError) Unwrap() error {
	return e.Err
}
