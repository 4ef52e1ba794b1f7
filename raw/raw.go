// Package raw provides the byte-span allocators a zone allocator is layered on top of.
//
// An Allocator hands out spans of exactly the requested length and takes them back whole. It knows
// nothing about tags or purging: when it cannot satisfy a request it returns an error wrapping
// ErrExhausted and leaves any recovery to the caller.
package raw

import "github.com/cockroachdb/errors"

//go:generate mockgen -source raw.go -destination ./mocks/raw.go

// ErrExhausted is returned, possibly wrapped, when an Allocator cannot satisfy a request
var ErrExhausted = errors.New("raw allocator exhausted")

// Allocator requests and releases byte spans
type Allocator interface {
	// Allocate returns a span of exactly size bytes. Span contents are unspecified.
	Allocate(size int) ([]byte, error)
	// Free releases a span previously returned by Allocate. The span must be passed back unmodified
	// in length and capacity.
	Free(span []byte)
}
