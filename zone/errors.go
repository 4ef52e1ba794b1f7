package zone

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

var (
	// ErrOutOfMemory is the fatal failure raised when the raw allocator cannot satisfy a request
	// and there is nothing left in the cache to purge
	ErrOutOfMemory = errors.New("zone: out of memory")
	// ErrPurgeLimitTooSmall is the fatal failure raised when SetPurgeLimit receives a value below
	// MinPurgeLimit
	ErrPurgeLimitTooSmall = errors.New("zone: purge limit below minimum")
)

// fatal poisons the allocator, hands err to the configured FatalHandler and panics with err. The
// panic happens even if the handler returns: nothing may continue on an allocator that has failed.
func (a *Allocator) fatal(err error) {
	a.failure = err
	a.logger.Error("Allocator failed irrecoverably", slog.Any("error", err))

	if a.fatalHandler != nil {
		a.fatalHandler(err)
	}

	panic(err)
}

func (a *Allocator) checkUsable() {
	if a.failure != nil {
		panic(a.failure)
	}
}

// Failure returns the error that poisoned the allocator, or nil if it is still usable
func (a *Allocator) Failure() error {
	return a.failure
}
