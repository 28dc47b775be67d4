package models

import "errors"

// Engine errors. Callers match them with errors.Is; operations wrap them with context.
var (
	// ErrInvalidEmbedding reports an empty embedding or one containing NaN/Inf.
	ErrInvalidEmbedding = errors.New("invalid embedding")
	// ErrDuplicateID reports an insert whose id already exists. Use update instead.
	ErrDuplicateID = errors.New("duplicate pattern id")
	// ErrNotFound reports a missing pattern id.
	ErrNotFound = errors.New("pattern not found")
	// ErrSelfAbsorption reports an absorb whose target is also one of its sources.
	ErrSelfAbsorption = errors.New("pattern cannot absorb itself")
	// ErrInvalidArgument reports a programmer error such as top_k <= 0.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedFormat reports a snapshot whose format version is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported snapshot format")
)

// ErrorKind names the taxonomy entry err belongs to, for operator logs.
// Errors outside the taxonomy are reported as "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEmbedding):
		return "invalid_embedding"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSelfAbsorption):
		return "self_absorption"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		return "internal"
	}
}
