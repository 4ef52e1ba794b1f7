//go:build unix

package raw

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/zone/memutils"
	"golang.org/x/sys/unix"
)

// Mmap allocates every span as its own anonymous private mapping, so released spans go straight
// back to the operating system instead of waiting for the garbage collector. Mapping lengths are
// rounded up to the page size; the span handed out is sliced to the requested length.
type Mmap struct {
	limit    int
	mapped   int
	spans    int
	pageSize int
}

var _ Allocator = &Mmap{}

// NewMmap creates an Mmap allocator. A limit of 0 means requests only fail when the kernel refuses
// the mapping. The limit is applied to mapped (page-rounded) bytes.
func NewMmap(limit int) *Mmap {
	return &Mmap{
		limit:    limit,
		pageSize: unix.Getpagesize(),
	}
}

func (m *Mmap) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Newf("attempted to map a span of %d bytes", size)
	}

	length := memutils.AlignUp(size, uint(m.pageSize))
	if m.limit > 0 && m.mapped+length > m.limit {
		return nil, errors.Wrapf(ErrExhausted, "mapping limit %d reached: %d bytes mapped, %d requested", m.limit, m.mapped, length)
	}

	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		if errors.Is(err, unix.ENOMEM) {
			return nil, errors.Wrapf(ErrExhausted, "mmap of %d bytes: %v", length, err)
		}
		return nil, errors.Wrapf(err, "mmap of %d bytes", length)
	}

	m.mapped += length
	m.spans++

	return data[:size], nil
}

// Free unmaps the span. Passing a span that did not come from this allocator panics.
func (m *Mmap) Free(span []byte) {
	if span == nil {
		return
	}

	full := span[:cap(span)]
	err := unix.Munmap(full)
	if err != nil {
		panic(errors.Wrapf(err, "failed to unmap span of %d bytes", len(full)))
	}

	m.mapped -= len(full)
	m.spans--
}

// Mapped returns the number of page-rounded bytes currently mapped
func (m *Mmap) Mapped() int { return m.mapped }

// SpanCount returns the number of spans currently mapped
func (m *Mmap) SpanCount() int { return m.spans }
