package vmm

import (
	"kernelcore/kernel/mem"
	"unsafe"
)

// Page describes a virtual memory page index.
type Page uintptr

// Address returns the virtual address at the start of this page.
func (p Page) Address() uintptr {
	return uintptr(p) << mem.PageShift
}

// PageFromAddress returns the Page containing virtAddr, rounding down
// if virtAddr is not page-aligned.
func PageFromAddress(virtAddr uintptr) Page {
	return Page(virtAddr >> mem.PageShift)
}

// The recursive self-mapping places the kernel's own L4 table as its
// own entry 511. Reading the page tables at any level then becomes a
// matter of indexing into one of these four fixed virtual regions
// instead of needing an identity mapping of physical memory: the
// address arithmetic below folds the recursive lookup for level N into
// a single array index derived directly from the faulting virtual
// address.
const (
	l4TableAddr uintptr = 0xfffffffffffff000
	l3TableAddr uintptr = 0xffffffffffe00000
	l2TableAddr uintptr = 0xffffffffc0000000
	l1TableAddr uintptr = 0xffffff8000000000
)

func l4Index(virt uintptr) uintptr { return (virt >> 39) & 0x1ff }
func l3Index(virt uintptr) uintptr { return (virt >> 30) & 0x3ffff }
func l2Index(virt uintptr) uintptr { return (virt >> 21) & 0x7ffffff }
func l1Index(virt uintptr) uintptr { return (virt >> 12) & 0xfffffffff }

// ptePtrFn resolves a recursively-mapped page table entry address to
// the unsafe.Pointer the CPU would dereference. It is a plain identity
// cast when running on real hardware; tests substitute an indirection
// into ordinary Go-managed arrays so that Map/Unmap/Translate can be
// exercised without a live MMU.
var ptePtrFn = func(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}

// tableBaseFn resolves the virtual address of a freshly-created table
// so its contents can be zeroed. Tests override this the same way as
// ptePtrFn.
var tableBaseFn = func(addr uintptr) uintptr {
	return addr
}

func l4Entry(virt uintptr) *pageTableEntry {
	return (*pageTableEntry)(ptePtrFn(l4TableAddr + l4Index(virt)*8))
}

func l3Entry(virt uintptr) *pageTableEntry {
	return (*pageTableEntry)(ptePtrFn(l3TableAddr + l3Index(virt)*8))
}

func l2Entry(virt uintptr) *pageTableEntry {
	return (*pageTableEntry)(ptePtrFn(l2TableAddr + l2Index(virt)*8))
}

func l1Entry(virt uintptr) *pageTableEntry {
	return (*pageTableEntry)(ptePtrFn(l1TableAddr + l1Index(virt)*8))
}
