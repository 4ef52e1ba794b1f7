package zone

import (
	"encoding/binary"
	"unsafe"

	"github.com/vkngwrapper/zone/zone/internal/buckets"
)

// zoneID is written at the start of every block header
const zoneID uint32 = 0x931d4a11

// blockData is what the bucket table holds for each live block. The raw span is laid out as
// header | payload | debug margin; size is the chunk-rounded usable payload length.
type blockData struct {
	span      []byte
	size      int
	requested int
	user      *[]byte
}

func payloadKey(payload []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(payload)))
}

func (a *Allocator) payload(data *blockData) []byte {
	return data.span[a.headerSize : a.headerSize+data.requested : a.headerSize+data.size]
}

func writeHeader(span []byte, h buckets.Handle) {
	binary.LittleEndian.PutUint32(span[0:4], zoneID)
	binary.LittleEndian.PutUint32(span[4:8], uint32(h))
}

func readHeader(span []byte) (uint32, buckets.Handle) {
	return binary.LittleEndian.Uint32(span[0:4]), buckets.Handle(binary.LittleEndian.Uint32(span[4:8]))
}

// clearUser nils the slot recorded for the block, provided the slot still refers to the block's
// payload. Callers that reused the slot for another block keep their new value.
func (a *Allocator) clearUser(data *blockData) {
	if data.user == nil || cap(*data.user) == 0 {
		return
	}

	if payloadKey(*data.user) == payloadKey(data.span[a.headerSize:]) {
		*data.user = nil
	}
}
