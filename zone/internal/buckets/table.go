package buckets

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Handle identifies a record in a Table. Handles are reused once a record is removed.
type Handle int32

const (
	// NoHandle is returned when a bucket is empty
	NoHandle Handle = -1

	detachedTag = -1
)

type record[T any] struct {
	tag  int
	prev Handle
	next Handle
	live bool
	data T
}

// Table is an arena of records, each linked into exactly one circular bucket selected by its tag.
// Buckets are ordered by insertion: the head is the oldest member and the tail, head's prev,
// the newest.
type Table[T any] struct {
	records  []record[T]
	freeList []Handle

	heads  []Handle
	counts []int
}

// NewTable creates a table with tagCount empty buckets, tags 0 through tagCount-1
func NewTable[T any](tagCount int) *Table[T] {
	t := &Table[T]{
		heads:  make([]Handle, tagCount),
		counts: make([]int, tagCount),
	}

	for i := range t.heads {
		t.heads[i] = NoHandle
	}

	return t
}

// TagCount is the number of buckets in the table
func (t *Table[T]) TagCount() int { return len(t.heads) }

func (t *Table[T]) checkTag(tag int) {
	if tag < 0 || tag >= len(t.heads) {
		panic(fmt.Sprintf("tag %d is outside of the table's tag range [0, %d)", tag, len(t.heads)))
	}
}

func (t *Table[T]) rec(h Handle) *record[T] {
	if h < 0 || int(h) >= len(t.records) || !t.records[h].live {
		panic(fmt.Sprintf("attempted to access dead or unknown record handle %d", h))
	}
	return &t.records[h]
}

// Insert creates a record carrying data and links it at the tail of tag's bucket
func (t *Table[T]) Insert(tag int, data T) Handle {
	t.checkTag(tag)

	var h Handle
	if n := len(t.freeList); n > 0 {
		h = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		h = Handle(len(t.records))
		t.records = append(t.records, record[T]{})
	}

	t.records[h] = record[T]{live: true, data: data, tag: detachedTag, prev: NoHandle, next: NoHandle}
	t.link(h, tag)

	return h
}

// Remove unlinks h from its bucket and releases the record, returning its data
func (t *Table[T]) Remove(h Handle) T {
	r := t.rec(h)
	if r.tag != detachedTag {
		t.unlink(h)
	}

	data := r.data
	*r = record[T]{tag: detachedTag, prev: NoHandle, next: NoHandle}
	t.freeList = append(t.freeList, h)

	return data
}

// Retag moves h to the tail of tag's bucket. Moving a record to the bucket it already occupies
// does nothing.
func (t *Table[T]) Retag(h Handle, tag int) {
	t.checkTag(tag)

	r := t.rec(h)
	if r.tag == tag {
		return
	}

	if r.tag != detachedTag {
		t.unlink(h)
	}
	t.link(h, tag)
}

// Detach unlinks h from its bucket without releasing the record. A detached record is invisible to
// bucket traversal until it is retagged or removed.
func (t *Table[T]) Detach(h Handle) {
	r := t.rec(h)
	if r.tag != detachedTag {
		t.unlink(h)
	}
}

func (t *Table[T]) link(h Handle, tag int) {
	r := &t.records[h]
	head := t.heads[tag]

	if head == NoHandle {
		t.heads[tag] = h
		r.prev = h
		r.next = h
	} else {
		tail := t.records[head].prev
		t.records[tail].next = h
		r.prev = tail
		r.next = head
		t.records[head].prev = h
	}

	r.tag = tag
	t.counts[tag]++
}

func (t *Table[T]) unlink(h Handle) {
	r := &t.records[h]
	tag := r.tag

	if r.next == h {
		t.heads[tag] = NoHandle
	} else {
		if t.heads[tag] == h {
			t.heads[tag] = r.next
		}
		t.records[r.prev].next = r.next
		t.records[r.next].prev = r.prev
	}

	r.prev = NoHandle
	r.next = NoHandle
	r.tag = detachedTag
	t.counts[tag]--
}

// Data returns a pointer to the caller data of a live record
func (t *Table[T]) Data(h Handle) *T {
	return &t.rec(h).data
}

// Tag returns the bucket h currently belongs to, or -1 if it is detached
func (t *Table[T]) Tag(h Handle) int {
	return t.rec(h).tag
}

// Detached reports whether h is live but outside every bucket
func (t *Table[T]) Detached(h Handle) bool {
	return t.rec(h).tag == detachedTag
}

// Head returns the oldest member of tag's bucket, or NoHandle
func (t *Table[T]) Head(tag int) Handle {
	t.checkTag(tag)
	return t.heads[tag]
}

// Tail returns the newest member of tag's bucket, or NoHandle
func (t *Table[T]) Tail(tag int) Handle {
	t.checkTag(tag)
	head := t.heads[tag]
	if head == NoHandle {
		return NoHandle
	}
	return t.records[head].prev
}

// Next returns the member after h in its bucket, wrapping from the tail back to the head
func (t *Table[T]) Next(h Handle) Handle {
	return t.rec(h).next
}

// Len returns the number of members in tag's bucket
func (t *Table[T]) Len(tag int) int {
	t.checkTag(tag)
	return t.counts[tag]
}

// Live returns the number of live records, detached ones included
func (t *Table[T]) Live() int {
	return len(t.records) - len(t.freeList)
}

// Visit calls visitor once for each member of tag's bucket, oldest first. Returning false stops
// the traversal. The visitor must not mutate the table.
func (t *Table[T]) Visit(tag int, visitor func(h Handle, data *T) bool) {
	t.checkTag(tag)

	head := t.heads[tag]
	if head == NoHandle {
		return
	}

	h := head
	for {
		next := t.records[h].next
		if !visitor(h, &t.records[h].data) {
			return
		}
		if next == head {
			return
		}
		h = next
	}
}

// Validate verifies that every bucket is a well-formed circular list whose members all carry the
// bucket's tag, and that the member counts agree with the live records.
func (t *Table[T]) Validate() error {
	linked := 0

	for tag, head := range t.heads {
		if head == NoHandle {
			if t.counts[tag] != 0 {
				return errors.Newf("bucket %d has no head but claims %d members", tag, t.counts[tag])
			}
			continue
		}

		if int(head) >= len(t.records) || !t.records[head].live {
			return errors.Newf("bucket %d has head %d, which is not a live record", tag, head)
		}

		steps := 0
		h := head
		for {
			r := &t.records[h]
			if r.tag != tag {
				return errors.Newf("record %d is linked into bucket %d but is tagged %d", h, tag, r.tag)
			}
			if r.next < 0 || int(r.next) >= len(t.records) || !t.records[r.next].live {
				return errors.Newf("record %d in bucket %d links to invalid next record %d", h, tag, r.next)
			}
			if t.records[r.next].prev != h {
				return errors.Newf("record %d in bucket %d is not the prev of its next record %d", h, tag, r.next)
			}

			steps++
			if steps > t.counts[tag] {
				return errors.Newf("bucket %d does not return to its head after %d members", tag, t.counts[tag])
			}

			h = r.next
			if h == head {
				break
			}
		}

		if steps != t.counts[tag] {
			return errors.Newf("bucket %d claims %d members but %d were found", tag, t.counts[tag], steps)
		}
		linked += steps
	}

	detached := 0
	for h := range t.records {
		r := &t.records[h]
		if r.live && r.tag == detachedTag {
			detached++
		}
	}

	if linked+detached != t.Live() {
		return errors.Newf("table has %d live records but %d are linked and %d detached", t.Live(), linked, detached)
	}

	return nil
}
