package zone

import (
	"github.com/vkngwrapper/zone/memutils"
	"golang.org/x/exp/slog"
)

// Realloc allocates a new block of size bytes carrying tag and moves p's contents into it. Bytes
// beyond p's usable size are zeroed. p is then freed and the new payload is stored into user.
//
// A nil p behaves like Malloc. A size of 0 frees p and returns nil.
func (a *Allocator) Realloc(p []byte, size int, tag Tag, user *[]byte) []byte {
	a.checkUsable()
	a.logger.Debug("Allocator::Realloc", slog.Int("OldSize", cap(p)), slog.Int("Size", size), slog.String("Tag", tag.String()))

	if cap(p) == 0 {
		payload := a.allocate(size, tag, user)
		memutils.DebugValidate(a)
		return payload
	}

	checkTag(tag)
	checkSize(size)
	oldHandle := a.handleOf(p)

	// Cached blocks could otherwise be purged by the allocation below
	a.blocks.Detach(oldHandle)
	payload := a.allocate(size, tag, user)

	old := a.blocks.Data(oldHandle)
	if len(payload) > 0 {
		oldContents := old.span[a.headerSize : a.headerSize+old.size]
		copied := copy(payload, oldContents)
		clear(payload[copied:])
	}

	a.release(oldHandle)
	if user != nil {
		*user = payload
	}
	memutils.DebugValidate(a)

	return payload
}

// Calloc allocates a zeroed block of count*elemSize bytes. A product of 0 returns nil and, unlike
// Malloc, leaves user untouched.
func (a *Allocator) Calloc(count, elemSize int, tag Tag, user *[]byte) []byte {
	a.checkUsable()
	a.logger.Debug("Allocator::Calloc", slog.Int("Count", count), slog.Int("ElemSize", elemSize), slog.String("Tag", tag.String()))

	size := count * elemSize
	if size == 0 {
		return nil
	}

	payload := a.allocate(size, tag, user)
	clear(payload)
	memutils.DebugValidate(a)

	return payload
}

// Strdup copies text into a new block followed by a zero byte. The returned payload includes the
// terminator.
func (a *Allocator) Strdup(text string, tag Tag, user *[]byte) []byte {
	a.checkUsable()
	a.logger.Debug("Allocator::Strdup", slog.Int("Length", len(text)), slog.String("Tag", tag.String()))

	payload := a.allocate(len(text)+1, tag, user)
	copy(payload, text)
	payload[len(text)] = 0
	memutils.DebugValidate(a)

	return payload
}
