package vmm

import (
	"testing"
	"unsafe"

	"kernelcore/kernel"
	"kernelcore/kernel/mem"
	"kernelcore/kernel/mem/pmm"
)

// fakeTables stands in for the four levels of page tables that would
// normally be reached via the recursive mapping. Each call to ptePtrFn
// during a single Map/Unmap/Translate walk advances to the next level,
// mirroring how a real walk always visits L4, L3, L2, L1 in order.
type fakeTables struct {
	levels    [4][512]pageTableEntry
	callCount int
}

func (f *fakeTables) reset() {
	f.callCount = 0
}

func (f *fakeTables) ptePtr(addr uintptr) unsafe.Pointer {
	level := f.callCount
	if level >= 4 {
		level = 3
	}
	f.callCount++

	var index uintptr
	switch level {
	case 0:
		index = l4Index(addr)
	case 1:
		index = l3Index(addr) & 0x1ff
	case 2:
		index = l2Index(addr) & 0x1ff
	case 3:
		index = l1Index(addr) & 0x1ff
	}
	return unsafe.Pointer(&f.levels[level][index])
}

func (f *fakeTables) tableBase(uintptr) uintptr {
	level := f.callCount
	if level >= 4 {
		level = 3
	}
	return uintptr(unsafe.Pointer(&f.levels[level][0]))
}

func setupFakeTables(t *testing.T) *fakeTables {
	t.Helper()
	ft := &fakeTables{}

	origPtePtr, origTableBase, origFlush := ptePtrFn, tableBaseFn, flushTLBEntryFn
	ptePtrFn = ft.ptePtr
	tableBaseFn = ft.tableBase
	flushTLBEntryFn = func(uintptr) {}

	t.Cleanup(func() {
		ptePtrFn = origPtePtr
		tableBaseFn = origTableBase
		flushTLBEntryFn = origFlush
	})

	return ft
}

func nextFrameAllocator(start pmm.Frame) FrameAllocatorFn {
	next := start
	return func() (pmm.Frame, *kernel.Error) {
		f := next
		next++
		return f, nil
	}
}

func TestMapTranslateRoundTrip(t *testing.T) {
	ft := setupFakeTables(t)
	alloc := nextFrameAllocator(100)

	page := Page(0xA000 >> mem.PageShift)
	frame := pmm.Frame(0x123)

	ft.reset()
	if err := Map(page, frame, FlagRW, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ft.reset()
	phys, err := Translate(page.Address())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phys != frame.Address() {
		t.Errorf("expected translated address %x; got %x", frame.Address(), phys)
	}
}

func TestMapAlreadyMapped(t *testing.T) {
	ft := setupFakeTables(t)
	alloc := nextFrameAllocator(200)

	page := Page(0x1000 >> mem.PageShift)

	ft.reset()
	if err := Map(page, pmm.Frame(1), FlagRW, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ft.reset()
	if err := Map(page, pmm.Frame(2), FlagRW, alloc); err != ErrAlreadyMapped {
		t.Fatalf("expected ErrAlreadyMapped; got %v", err)
	}
}

func TestUnmapIsIdempotent(t *testing.T) {
	ft := setupFakeTables(t)

	page := Page(0x2000 >> mem.PageShift)

	ft.reset()
	if err := Unmap(page); err != ErrNotMapped {
		t.Fatalf("expected ErrNotMapped for a page that was never mapped; got %v", err)
	}

	alloc := nextFrameAllocator(300)
	ft.reset()
	if err := Map(page, pmm.Frame(9), FlagRW, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ft.reset()
	if err := Unmap(page); err != nil {
		t.Fatalf("unexpected error on first unmap: %v", err)
	}

	ft.reset()
	if err := Unmap(page); err != ErrNotMapped {
		t.Fatalf("expected ErrNotMapped on repeated unmap; got %v", err)
	}
}

func TestTranslateUnmapped(t *testing.T) {
	setupFakeTables(t)

	if _, err := Translate(0xFFFF_FFFF_8010_0000); err != ErrNotMapped {
		t.Fatalf("expected ErrNotMapped; got %v", err)
	}
}
