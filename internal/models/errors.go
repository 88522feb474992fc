package models

import "errors"

// Error taxonomy shared by every stage of the pipeline. Callers wrap these
// with context and compare with errors.Is.
var (
	// ErrFetch means a source page could not be retrieved. Region scoped.
	ErrFetch = errors.New("fetch failed")
	// ErrNoTableFound means the region page had no table. Region scoped.
	ErrNoTableFound = errors.New("no table found")
	// ErrMalformedRow means a row had no beach name. Row scoped.
	ErrMalformedRow = errors.New("malformed row")
	// ErrLookup covers provider errors, timeouts and empty result sets.
	ErrLookup = errors.New("lookup failed")
	// ErrUnreachableImage means an image candidate failed its probe.
	ErrUnreachableImage = errors.New("image unreachable")
	// ErrExport means a spreadsheet or file export failed. Never fatal.
	ErrExport = errors.New("export failed")
	// ErrUnknownField is returned by stores for fields outside the schema.
	ErrUnknownField = errors.New("unknown field")
)
