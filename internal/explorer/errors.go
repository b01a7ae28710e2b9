package explorer

import "errors"

var (
	// ErrProviderUnavailable covers network failures, timeouts and non-2xx provider replies.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMalformedPayload is returned when a provider reply lacks expected fields.
	ErrMalformedPayload = errors.New("malformed provider payload")
	// ErrNotFound is returned when a provider has no results for the query.
	ErrNotFound = errors.New("no results found")
	// ErrPersistence wraps store read and write failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidQuery is returned for requests missing required parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownResource is returned for a resource type with no registered adapter.
	ErrUnknownResource = errors.New("unknown resource type")
)
