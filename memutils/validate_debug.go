//go:build debug_mem_utils

package memutils

import "encoding/binary"

const (
	// DebugMargin is the number of guard bytes placed after every payload inside a raw span.
	DebugMargin int = 16
	// corruptionDetectionMagicValue is the 4-byte pattern repeated across each guard
	corruptionDetectionMagicValue uint32 = 0x7F84E666
)

// WriteMagicValue writes the guard pattern across DebugMargin bytes of span starting at offset.
func WriteMagicValue(span []byte, offset int) {
	guard := span[offset : offset+DebugMargin]
	for len(guard) >= 4 {
		binary.LittleEndian.PutUint32(guard, corruptionDetectionMagicValue)
		guard = guard[4:]
	}
}

// ValidateMagicValue reports whether the guard written by WriteMagicValue at span[offset:] is intact.
func ValidateMagicValue(span []byte, offset int) bool {
	if offset+DebugMargin > len(span) {
		return false
	}

	guard := span[offset : offset+DebugMargin]
	for len(guard) >= 4 {
		if binary.LittleEndian.Uint32(guard) != corruptionDetectionMagicValue {
			return false
		}
		guard = guard[4:]
	}

	return true
}

// DebugFill overwrites data with pattern so that reads of uninitialized or released memory stand out.
func DebugFill(data []byte, pattern uint8) {
	for i := range data {
		data[i] = pattern
	}
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}
