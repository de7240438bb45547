package vmm

import (
	"kernelcore/kernel"
	"kernelcore/kernel/cpu"
	"kernelcore/kernel/mem"
	"kernelcore/kernel/mem/pmm"
)

var (
	// ErrNotMapped is returned by Unmap and Translate when the given
	// virtual address has no mapping at the point where the walk
	// stopped.
	ErrNotMapped = &kernel.Error{Module: "vmm", Message: "virtual address is not mapped"}

	// ErrAlreadyMapped is returned by Map when the target page already
	// has a present mapping.
	ErrAlreadyMapped = &kernel.Error{Module: "vmm", Message: "virtual address is already mapped"}

	errHugePageConflict = &kernel.Error{Module: "vmm", Message: "intermediate entry is a huge page"}

	// flushTLBEntryFn is substituted by tests to avoid issuing invlpg,
	// which would fault outside of ring 0.
	flushTLBEntryFn = cpu.FlushTLBEntry
)

// FrameAllocatorFn supplies physical frames to back newly created
// intermediate page tables.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// Map establishes a mapping from page to frame in the currently active
// address space, allocating any missing intermediate page tables via
// allocFn.
func Map(page Page, frame pmm.Frame, flags PageTableEntryFlag, allocFn FrameAllocatorFn) *kernel.Error {
	virt := page.Address()

	if err := ensureTable(l4Entry(virt), l3TableAddr+l4Index(virt)*uintptr(mem.PageSize), allocFn); err != nil {
		return err
	}
	if err := ensureTable(l3Entry(virt), l2TableAddr+l3Index(virt)*uintptr(mem.PageSize), allocFn); err != nil {
		return err
	}

	l2e := l2Entry(virt)
	if l2e.HasFlags(FlagPresent) && l2e.HasFlags(FlagHuge) {
		return errHugePageConflict
	}
	if err := ensureTable(l2e, l1TableAddr+l2Index(virt)*uintptr(mem.PageSize), allocFn); err != nil {
		return err
	}

	l1e := l1Entry(virt)
	if l1e.HasFlags(FlagPresent) {
		return ErrAlreadyMapped
	}

	*l1e = 0
	l1e.SetFrame(frame)
	l1e.SetFlags(FlagPresent | flags)
	flushTLBEntryFn(virt)
	return nil
}

// ensureTable makes sure entry points at a present, zeroed table,
// allocating a backing frame via allocFn if it does not already exist.
func ensureTable(entry *pageTableEntry, tableVirtBase uintptr, allocFn FrameAllocatorFn) *kernel.Error {
	if entry.HasFlags(FlagPresent) {
		return nil
	}

	frame, err := allocFn()
	if err != nil {
		return err
	}

	*entry = 0
	entry.SetFrame(frame)
	entry.SetFlags(FlagPresent | FlagRW)

	// The new table's contents only become addressable through the
	// recursive mapping once the entry above is written; flush the
	// stale translation before zeroing it.
	flushTLBEntryFn(tableVirtBase)
	mem.Memset(tableBaseFn(tableVirtBase), 0, mem.PageSize)
	return nil
}

// Unmap removes a previously installed mapping. Unmapping an address
// that is not currently mapped is reported via ErrNotMapped rather than
// treated as a fault, so callers can safely call Unmap defensively.
func Unmap(page Page) *kernel.Error {
	virt := page.Address()

	if !l4Entry(virt).HasFlags(FlagPresent) {
		return ErrNotMapped
	}
	if !l3Entry(virt).HasFlags(FlagPresent) {
		return ErrNotMapped
	}

	l2e := l2Entry(virt)
	if !l2e.HasFlags(FlagPresent) {
		return ErrNotMapped
	}
	if l2e.HasFlags(FlagHuge) {
		l2e.ClearFlags(FlagPresent)
		flushTLBEntryFn(virt)
		return nil
	}

	l1e := l1Entry(virt)
	if !l1e.HasFlags(FlagPresent) {
		return ErrNotMapped
	}

	l1e.ClearFlags(FlagPresent)
	flushTLBEntryFn(virt)
	return nil
}

// Translate resolves a virtual address to the physical address it is
// currently mapped to.
func Translate(virt uintptr) (mem.PhysAddr, *kernel.Error) {
	if !l4Entry(virt).HasFlags(FlagPresent) {
		return 0, ErrNotMapped
	}
	if !l3Entry(virt).HasFlags(FlagPresent) {
		return 0, ErrNotMapped
	}

	l2e := l2Entry(virt)
	if !l2e.HasFlags(FlagPresent) {
		return 0, ErrNotMapped
	}
	if l2e.HasFlags(FlagHuge) {
		base := l2e.Frame().Address()
		return base + mem.PhysAddr(virt&0x1FFFFF), nil
	}

	l1e := l1Entry(virt)
	if !l1e.HasFlags(FlagPresent) {
		return 0, ErrNotMapped
	}

	base := l1e.Frame().Address()
	return base + mem.PhysAddr(virt&0xFFF), nil
}
