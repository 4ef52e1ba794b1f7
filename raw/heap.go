package raw

import (
	"github.com/cockroachdb/errors"
)

// Heap allocates spans from the Go heap. An optional limit caps the number of outstanding bytes,
// which lets callers model a constrained platform.
type Heap struct {
	limit       int
	outstanding int
	spans       int
}

var _ Allocator = &Heap{}

// NewHeap creates a Heap. A limit of 0 means requests only fail when the Go runtime does.
func NewHeap(limit int) *Heap {
	return &Heap{limit: limit}
}

func (h *Heap) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Newf("attempted to allocate a span of %d bytes", size)
	}

	if h.limit > 0 && h.outstanding+size > h.limit {
		return nil, errors.Wrapf(ErrExhausted, "heap limit %d reached: %d bytes outstanding, %d requested", h.limit, h.outstanding, size)
	}

	span := make([]byte, size)
	h.outstanding += size
	h.spans++

	return span, nil
}

// Free forgets the span. The memory is returned to the runtime by the garbage collector once the
// caller drops its references.
func (h *Heap) Free(span []byte) {
	if span == nil {
		return
	}

	h.outstanding -= cap(span)
	h.spans--
}

// Limit returns the configured limit, 0 if unlimited
func (h *Heap) Limit() int { return h.limit }

// SetLimit changes the limit. Lowering it below the outstanding total only affects future requests.
func (h *Heap) SetLimit(limit int) { h.limit = limit }

// Outstanding returns the number of bytes currently allocated
func (h *Heap) Outstanding() int { return h.outstanding }

// SpanCount returns the number of spans currently allocated
func (h *Heap) SpanCount() int { return h.spans }
