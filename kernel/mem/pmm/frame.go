// Package pmm manages the allocation of physical memory page frames.
package pmm

import (
	"math"

	"kernelcore/kernel/mem"
)

// Frame identifies a physical memory page by its page number (physical
// address >> mem.PageShift).
type Frame uint64

// InvalidFrame is returned by the allocator when a request cannot be
// satisfied.
const InvalidFrame = Frame(math.MaxUint64)

// IsValid reports whether f is a real, allocator-returned frame.
func (f Frame) IsValid() bool {
	return f != InvalidFrame
}

// Address returns the physical address of the start of this frame.
func (f Frame) Address() mem.PhysAddr {
	return mem.PhysAddr(f << mem.PageShift)
}
