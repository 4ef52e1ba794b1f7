//go:build !memory_low

package zone

// lowMemoryPlatform enables purge limits for every allocator. Build with the memory_low tag
// to turn it on.
const lowMemoryPlatform = false
