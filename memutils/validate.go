package memutils

// Validatable is used by the DebugValidate method to allow it to act upon
// all types with a Validate method
type Validatable interface {
	Validate() error
}

const (
	// CreatedFillPattern is written across fresh payloads in debug builds
	CreatedFillPattern uint8 = 0xDC
	// DestroyedFillPattern is written across released payloads in debug builds
	DestroyedFillPattern uint8 = 0xEF
)
