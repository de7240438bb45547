// Package heap implements the kernel's bump allocator: a single
// reserved arena handed out monotonically and never reclaimed. It is a
// plain API for kernel code and is not wired into the Go runtime's
// allocator; its job is simply to hand out aligned, disjoint ranges
// quickly, not to support arbitrary free/reuse patterns.
package heap

import (
	"unsafe"

	"kernelcore/kernel/mem"
)

// Size is the total capacity of the kernel heap arena.
const Size = 64 * mem.Mb

var (
	arena  [Size]byte
	offset mem.Size
)

// Alloc reserves size bytes aligned to align (which must be a power of
// two) from the arena, optionally zeroing them, and returns the start
// address. The second return value is false if the arena has been
// exhausted.
func Alloc(size, align mem.Size, zero bool) (uintptr, bool) {
	base := uintptr(unsafe.Pointer(&arena[0]))

	start := alignUp(base+uintptr(offset), align) - base
	end := start + uintptr(size)
	if end > uintptr(Size) {
		return 0, false
	}

	offset = mem.Size(end)
	addr := base + start
	if zero {
		mem.Memset(addr, 0, size)
	}
	return addr, true
}

// Free is a documented no-op: the bump allocator never reclaims
// individual allocations. It exists so callers written against a
// conventional alloc/free pair don't need a special case for the
// kernel heap.
func Free(addr uintptr, size mem.Size) {}

// Used reports how many bytes of the arena have been handed out.
func Used() mem.Size {
	return offset
}

func alignUp(addr uintptr, align mem.Size) uintptr {
	a := uintptr(align)
	if a == 0 {
		return addr
	}
	return (addr + a - 1) &^ (a - 1)
}
