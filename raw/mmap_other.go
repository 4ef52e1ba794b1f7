//go:build !unix

package raw

// Mmap falls back to heap spans on platforms without anonymous mappings
type Mmap struct {
	heap Heap
}

var _ Allocator = &Mmap{}

// NewMmap creates an Mmap allocator backed by the Go heap
func NewMmap(limit int) *Mmap {
	return &Mmap{heap: Heap{limit: limit}}
}

func (m *Mmap) Allocate(size int) ([]byte, error) {
	return m.heap.Allocate(size)
}

func (m *Mmap) Free(span []byte) {
	m.heap.Free(span)
}

// Mapped returns the number of bytes currently allocated
func (m *Mmap) Mapped() int { return m.heap.Outstanding() }

// SpanCount returns the number of spans currently allocated
func (m *Mmap) SpanCount() int { return m.heap.SpanCount() }
