package zone

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/zone/memutils"
	"github.com/vkngwrapper/zone/raw"
	"github.com/vkngwrapper/zone/zone/internal/buckets"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags uint32

const (
	// AllocatorCreateLowMemory activates purge limits: the allocator keeps a soft ceiling on
	// outstanding bytes and purges cached blocks ahead of any allocation that would cross it. Builds
	// with the memory_low tag behave as if every allocator carried this flag.
	AllocatorCreateLowMemory CreateFlags = 1 << iota
)

var allocatorCreateFlagsMapping = map[CreateFlags]string{
	AllocatorCreateLowMemory: "AllocatorCreateLowMemory",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := CreateFlags(1); bit != 0; bit <<= 1 {
		if f&bit == 0 {
			continue
		}

		name, ok := allocatorCreateFlagsMapping[bit]
		if !ok {
			name = fmt.Sprintf("CreateFlags(%#x)", uint32(bit))
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// DefaultChunkSize is the granularity every payload and header is rounded up to when
	// CreateOptions.ChunkSize is left at 0
	DefaultChunkSize int = 32
	// DefaultPurgeLimit is the purge limit applied when purge limits are active and
	// CreateOptions.PurgeLimit is left at 0. It is equal to 16MiB.
	DefaultPurgeLimit int = 16 * 1024 * 1024
	// MinPurgeLimit is the smallest purge limit that may be configured. It is equal to 8MiB.
	MinPurgeLimit int = 8 * 1024 * 1024

	// blockHeaderBytes is the part of each header actually written: a magic value and the block's handle
	blockHeaderBytes int = 8
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags
	// ChunkSize is the rounding granularity for payloads and block headers. It must be a power of
	// two. 0 selects DefaultChunkSize.
	ChunkSize int
	// PurgeLimit is the initial soft ceiling in bytes. It may only be provided when purge limits are
	// active and must be at least MinPurgeLimit. 0 selects DefaultPurgeLimit when active.
	PurgeLimit int
	// FatalHandler is called with the error when the allocator fails irrecoverably: the raw
	// allocator is exhausted with nothing left to purge, or SetPurgeLimit received a value below
	// MinPurgeLimit. The allocator panics with the same error once the handler returns, so a
	// handler that wants to recover must do so with its own recover further up the stack.
	FatalHandler func(err error)
}

// New creates a new Allocator
//
// logger - Debug output for every operation and purge, nil selects slog.Default()
//
// backing - The raw allocator that every block's span is requested from
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, backing raw.Allocator, options CreateOptions) (*Allocator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if backing == nil {
		return nil, errors.New("attempted to create an allocator with a nil raw allocator")
	}

	chunkSize := options.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	err := memutils.CheckPositive(chunkSize, "CreateOptions.ChunkSize")
	if err != nil {
		return nil, err
	}
	err = memutils.CheckPow2(chunkSize, "CreateOptions.ChunkSize")
	if err != nil {
		return nil, err
	}

	purgeLimitActive := lowMemoryPlatform || options.Flags&AllocatorCreateLowMemory != 0
	purgeLimit := 0
	if purgeLimitActive {
		purgeLimit = DefaultPurgeLimit
		if options.PurgeLimit != 0 {
			if options.PurgeLimit < MinPurgeLimit {
				return nil, errors.Wrapf(ErrPurgeLimitTooSmall, "CreateOptions.PurgeLimit is %d, the minimum is %d", options.PurgeLimit, MinPurgeLimit)
			}
			purgeLimit = options.PurgeLimit
		}
	} else if options.PurgeLimit != 0 {
		return nil, errors.New("CreateOptions.PurgeLimit was provided, but purge limits are only active with " +
			"AllocatorCreateLowMemory or the memory_low build tag")
	}

	allocator := &Allocator{
		logger:       logger,
		backing:      backing,
		createFlags:  options.Flags,
		fatalHandler: options.FatalHandler,

		chunkSize:        uint(chunkSize),
		headerSize:       memutils.AlignUp(blockHeaderBytes, uint(chunkSize)),
		purgeLimitActive: purgeLimitActive,

		blocks: buckets.NewTable[blockData](tagCount),
		lookup: swiss.NewMap[uintptr, buckets.Handle](42),
	}
	allocator.budget.SetLimit(purgeLimit)

	logger.Debug("Allocator::New",
		slog.String("Flags", options.Flags.String()),
		slog.Int("ChunkSize", chunkSize),
		slog.Int("PurgeLimit", purgeLimit),
	)

	return allocator, nil
}
