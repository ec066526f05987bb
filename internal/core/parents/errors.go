package parents

import "errors"

var (
	// ErrUnknownKind is returned for a Ref whose kind is neither post nor comment
	ErrUnknownKind = errors.New("unknown parent kind")

	// ErrUnsupportedCounter is returned when a counter does not exist for a kind
	ErrUnsupportedCounter = errors.New("counter not supported for parent kind")
)
