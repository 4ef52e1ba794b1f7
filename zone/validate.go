package zone

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/zone/memutils"
	"github.com/vkngwrapper/zone/zone/internal/buckets"
)

// Validate verifies the allocator's internal bookkeeping: bucket structure, agreement between the
// buckets and the payload lookup table, every block's header, and that Used equals the sum of live
// block sizes. It is called after every mutation in builds with the debug_mem_utils tag.
func (a *Allocator) Validate() error {
	err := a.blocks.Validate()
	if err != nil {
		return errors.Wrap(err, "bucket table is corrupt")
	}

	if a.blocks.Len(int(TagFree)) != 0 {
		return errors.Newf("%d blocks are tagged TagFree", a.blocks.Len(int(TagFree)))
	}

	if a.lookup.Count() != a.blocks.Live() {
		return errors.Newf("lookup table holds %d payloads but %d blocks are live", a.lookup.Count(), a.blocks.Live())
	}

	used := 0
	a.lookup.Iter(func(key uintptr, handle buckets.Handle) bool {
		data := a.blocks.Data(handle)
		err = a.validateBlock(key, handle, data)
		if err != nil {
			return true
		}

		used += data.size
		return false
	})
	if err != nil {
		return err
	}

	if used != a.budget.Used() {
		return errors.Newf("live blocks sum to %d bytes but %d bytes are charged", used, a.budget.Used())
	}

	return nil
}

func (a *Allocator) validateBlock(key uintptr, handle buckets.Handle, data *blockData) error {
	if payloadKey(data.span[a.headerSize:]) != key {
		return errors.Newf("block %d is registered at %#x but its payload begins at %#x", handle, key, payloadKey(data.span[a.headerSize:]))
	}

	if data.size <= 0 || data.size != memutils.AlignUp(data.size, a.chunkSize) {
		return errors.Newf("block %d has size %d, which is not a positive multiple of the chunk size %d", handle, data.size, a.chunkSize)
	}

	if data.requested <= 0 || data.requested > data.size {
		return errors.Newf("block %d has requested size %d, which does not fit its size %d", handle, data.requested, data.size)
	}

	if len(data.span) != a.headerSize+data.size+memutils.DebugMargin {
		return errors.Newf("block %d has a span of %d bytes, expected %d", handle, len(data.span), a.headerSize+data.size+memutils.DebugMargin)
	}

	return a.checkHeader(handle, data)
}

func (a *Allocator) checkHeader(handle buckets.Handle, data *blockData) error {
	magic, recorded := readHeader(data.span)
	if magic != zoneID {
		return errors.Newf("block %d header has magic value %#x, expected %#x", handle, magic, zoneID)
	}
	if recorded != handle {
		return errors.Newf("block %d header records handle %d", handle, recorded)
	}

	return nil
}

// CheckCorruption verifies the header of every live block and, in builds with the debug_mem_utils
// tag, the guard bytes written after every payload. The first damaged block found is reported.
func (a *Allocator) CheckCorruption() error {
	a.checkUsable()
	a.logger.Debug("Allocator::CheckCorruption")

	var err error
	a.lookup.Iter(func(key uintptr, handle buckets.Handle) bool {
		data := a.blocks.Data(handle)

		err = a.checkHeader(handle, data)
		if err == nil && !memutils.ValidateMagicValue(data.span, a.headerSize+data.size) {
			err = errors.Newf("memory corruption detected after the payload of block %d", handle)
		}

		return err != nil
	})

	return err
}
