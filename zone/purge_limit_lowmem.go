//go:build memory_low

package zone

// lowMemoryPlatform enables purge limits for every allocator
const lowMemoryPlatform = true
