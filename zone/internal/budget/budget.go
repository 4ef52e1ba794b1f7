package budget

// Tracker keeps a soft byte ceiling and the running net total of bytes charged to live blocks.
// It decides whether an allocation should trigger a proactive purge; it is not an accounting
// ledger and nothing fails when Used drifts.
type Tracker struct {
	limit int
	used  int
	peak  int
}

// Limit is the configured ceiling, 0 indicating no ceiling
func (t *Tracker) Limit() int { return t.limit }

// Used is the net number of bytes charged
func (t *Tracker) Used() int { return t.used }

// Peak is the highest Used value observed since the last Reset
func (t *Tracker) Peak() int { return t.peak }

// Limited reports whether a ceiling is configured
func (t *Tracker) Limited() bool { return t.limit > 0 }

// SetLimit replaces the ceiling
func (t *Tracker) SetLimit(limit int) {
	t.limit = limit
}

// Headroom is the number of bytes that may still be charged before the ceiling is exceeded.
// It is negative when usage already exceeds the ceiling and meaningless when unlimited.
func (t *Tracker) Headroom() int {
	return t.limit - t.used
}

// Fits reports whether charging size more bytes stays under the ceiling. It is always true when
// no ceiling is configured.
func (t *Tracker) Fits(size int) bool {
	if !t.Limited() {
		return true
	}
	return t.Headroom() >= size
}

// Charge adds size bytes to Used, raising Peak if needed
func (t *Tracker) Charge(size int) {
	t.used += size
	if t.used > t.peak {
		t.peak = t.used
	}
}

// Credit subtracts size bytes from Used
func (t *Tracker) Credit(size int) {
	t.used -= size
}

// Reset zeroes every counter, the ceiling included
func (t *Tracker) Reset() {
	t.limit = 0
	t.used = 0
	t.peak = 0
}
