//go:build !debug_mem_utils

package memutils

const (
	// DebugMargin is the number of guard bytes placed after every payload inside a raw span.
	// It is zero unless the debug_mem_utils build tag is present.
	DebugMargin int = 0
)

// ValidateMagicValue reports whether the guard written by WriteMagicValue at span[offset:] is intact.
// Without the debug_mem_utils build tag there is no guard and this always returns true.
func ValidateMagicValue(span []byte, offset int) bool {
	return true
}

// WriteMagicValue writes the guard pattern across DebugMargin bytes of span starting at offset.
// This method no-ops unless the debug_mem_utils build tag is present.
func WriteMagicValue(span []byte, offset int) {
}

// DebugFill overwrites data with pattern so that reads of uninitialized or released memory stand out.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugFill(data []byte, pattern uint8) {
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
}
