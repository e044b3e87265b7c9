package serial

import "errors"

// Decoding and encoding errors. Any of them aborts the whole operation, no
// partial result is ever returned.
var (
	// ErrMalformedHeader is returned for streams with bad magic or an
	// unsupported format version.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrTruncated is returned when the stream ends in the middle of a value.
	ErrTruncated = errors.New("truncated stream")
	// ErrUnknownType is returned for type tags that are not known.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnresolvedBuiltin is returned when the stream references a builtin
	// function that is not provided by the builtin table.
	ErrUnresolvedBuiltin = errors.New("unresolved builtin")
	// ErrNoPersistentHook is returned when the stream contains a persisted
	// object reference and no hook is configured to restore it.
	ErrNoPersistentHook = errors.New("no persistent object hook")
	// ErrUnsupported is returned for known, but unsupported constructs like
	// long vectors, class references or unknown ALTREP classes.
	ErrUnsupported = errors.New("unsupported")
	// ErrBadReference is returned for back-references outside of the
	// reference table.
	ErrBadReference = errors.New("bad reference")
	// ErrMalformed is returned for structurally invalid values (negative
	// lengths, non-symbol attribute names and the like).
	ErrMalformed = errors.New("malformed value")
)
