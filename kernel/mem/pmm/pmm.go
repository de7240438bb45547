package pmm

import (
	"kernelcore/kernel"
	"kernelcore/kernel/hal/multiboot"
	"kernelcore/kernel/kfmt/early"
	"kernelcore/kernel/mem"
)

// zoneBits is the number of frames tracked by a single bitmap word,
// mirroring the "Zone" concept of a fixed-width allocation unit: a zone
// that is all-ones is fully allocated and can be skipped during a scan
// without inspecting individual bits.
const zoneBits = 64

// maxTrackedFrames bounds the physical address space the allocator can
// describe without a heap: 1Mi frames covers 4GiB of RAM, which the
// static zone bitmap below reserves space for in BSS.
const maxTrackedFrames = 1 << 20
const maxZones = maxTrackedFrames / zoneBits

// maxRegions bounds the number of distinct available memory map entries
// the allocator can track; real firmware reports a handful.
const maxRegions = 64

var (
	errNoMemoryRegions = &kernel.Error{Module: "pmm", Message: "no available memory regions reported by bootloader"}
	errOutOfMemory     = &kernel.Error{Module: "pmm", Message: "out of physical memory"}
)

type region struct {
	startFrame Frame
	endFrame   Frame // inclusive
}

// Allocator is a bitmap-backed physical frame allocator. Every frame in
// the tracked address range starts out reserved; Init clears the bits
// that fall within bootloader-reported available regions and then
// re-reserves the frames occupied by the kernel image and boot modules.
type Allocator struct {
	zones      [maxZones]uint64
	regions    [maxRegions]region
	regionCnt  int
	totalPages uint32
	allocCount uint32
}

// FrameAllocator is the allocator instance used by the rest of the
// kernel once bring-up has completed.
var FrameAllocator Allocator

// Init reserves every frame by default, then frees the frames that fall
// within a MemAvailable region, then reserves the kernel image and any
// boot module ranges so they are never handed out.
func (a *Allocator) Init(bi *multiboot.BootInfo, kernelStart, kernelEnd uintptr) *kernel.Error {
	for i := range a.zones {
		a.zones[i] = ^uint64(0)
	}

	sawRegion := false
	bi.VisitMemRegions(func(entry *multiboot.MemoryMapEntry) bool {
		if entry.Type != multiboot.MemAvailable {
			return true
		}
		sawRegion = true

		start := mem.PhysAddr(entry.PhysAddress).RoundUp()
		end := mem.PhysAddr(entry.PhysAddress + entry.Length).RoundDown()
		if end <= start {
			return true
		}

		startFrame := Frame(start.Frame())
		endFrame := Frame(end.Frame()) - 1
		if uint64(endFrame) >= maxTrackedFrames {
			endFrame = Frame(maxTrackedFrames - 1)
		}
		if endFrame < startFrame {
			return true
		}

		if a.regionCnt < maxRegions {
			a.regions[a.regionCnt] = region{startFrame: startFrame, endFrame: endFrame}
			a.regionCnt++
		}

		for f := startFrame; f <= endFrame; f++ {
			a.setBit(f, false)
		}
		a.totalPages += uint32(endFrame-startFrame) + 1
		return true
	})

	if !sawRegion {
		return errNoMemoryRegions
	}

	a.reserveRange(mem.PhysAddr(kernelStart).RoundDown(), mem.PhysAddr(kernelEnd).RoundUp())

	bi.VisitModules(func(mod multiboot.Module) bool {
		a.reserveRange(mem.PhysAddr(mod.StartAddr).RoundDown(), mem.PhysAddr(mod.EndAddr).RoundUp())
		return true
	})

	early.Printf("[pmm] %d/%d frames free after reservations\n", a.totalPages-a.allocCount, a.totalPages)
	return nil
}

func (a *Allocator) reserveRange(start, end mem.PhysAddr) {
	if end <= start {
		return
	}
	startFrame := Frame(start.Frame())
	endFrame := Frame(end.Frame()) - 1
	for f := startFrame; f <= endFrame; f++ {
		if a.bit(f) {
			continue
		}
		a.setBit(f, true)
		a.allocCount++
	}
}

// Alloc reserves and returns the lowest-numbered free frame.
func (a *Allocator) Alloc() (Frame, *kernel.Error) {
	for zone := 0; zone < maxZones; zone++ {
		if a.zones[zone] == ^uint64(0) {
			continue
		}

		for bit := 0; bit < zoneBits; bit++ {
			mask := uint64(1) << uint(63-bit)
			if a.zones[zone]&mask != 0 {
				continue
			}

			frame := Frame(zone*zoneBits + bit)
			if !a.frameInAnyRegion(frame) {
				continue
			}

			a.zones[zone] |= mask
			a.allocCount++
			return frame, nil
		}
	}

	return InvalidFrame, errOutOfMemory
}

// Free releases a previously allocated frame back to the pool.
func (a *Allocator) Free(f Frame) {
	if !a.bit(f) {
		return
	}
	a.setBit(f, false)
	a.allocCount--
}

// AllocatedCount returns the number of frames currently reserved,
// including those reserved for the kernel image and boot modules.
func (a *Allocator) AllocatedCount() uint32 {
	return a.allocCount
}

// TotalFrames returns the number of frames across all available
// regions, whether currently allocated or not.
func (a *Allocator) TotalFrames() uint32 {
	return a.totalPages
}

func (a *Allocator) frameInAnyRegion(f Frame) bool {
	for i := 0; i < a.regionCnt; i++ {
		if f >= a.regions[i].startFrame && f <= a.regions[i].endFrame {
			return true
		}
	}
	return false
}

func (a *Allocator) bit(f Frame) bool {
	zone, bit := uint64(f)/zoneBits, uint64(f)%zoneBits
	return a.zones[zone]&(uint64(1)<<(63-bit)) != 0
}

func (a *Allocator) setBit(f Frame, set bool) {
	zone, bit := uint64(f)/zoneBits, uint64(f)%zoneBits
	mask := uint64(1) << (63 - bit)
	if set {
		a.zones[zone] |= mask
	} else {
		a.zones[zone] &^= mask
	}
}
