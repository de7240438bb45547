// Package multiboot decodes the tagged information block that a
// Multiboot2-compliant bootloader leaves in memory before transferring
// control to the kernel entry point.
package multiboot

import "unsafe"

// Magic is the value the bootloader leaves in EAX before jumping to the
// kernel entry point. The entry trampoline passes it through unchanged
// so Validate can confirm the handoff was a genuine Multiboot2
// boot and not, say, a jump from a stale or corrupt loader.
const Magic uint32 = 0x36D76289

type tagType uint32

const (
	tagEnd tagType = iota
	tagCmdline
	tagBootLoaderName
	tagModules
	tagBasicMeminfo
	tagBiosBootDevice
	tagMemoryMap
	tagVBEInfo
	tagFramebufferInfo
	tagElfSymbols
	tagAPMTable
	_
	_
	_
	tagACPIOld
	tagACPINew
)

type header struct {
	totalSize uint32
	reserved  uint32
}

type tagHeader struct {
	tagType tagType
	size    uint32
}

// MemoryEntryType classifies a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable marks RAM usable by the frame allocator.
	MemAvailable MemoryEntryType = iota + 1
	// MemReserved marks memory that must never be handed out as a frame.
	MemReserved
	// MemACPIReclaimable marks ACPI tables that can be reclaimed once
	// parsed.
	MemACPIReclaimable
	// MemNVS marks memory that must survive a hibernate cycle.
	MemNVS
	memUnknown
)

// MemoryMapEntry describes one physical memory region as reported by the
// bootloader.
type MemoryMapEntry struct {
	PhysAddress uint64
	Length      uint64
	Type        MemoryEntryType
	reserved    uint32
}

// MemRegionVisitor is invoked once per memory region; returning false
// stops the scan early.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

// FramebufferType classifies the pixel format of a FramebufferInfo.
type FramebufferType uint8

const (
	// FramebufferIndexed is a 256-color palette mode.
	FramebufferIndexed FramebufferType = iota
	// FramebufferRGB is direct RGB mode.
	FramebufferRGB
	// FramebufferEGAText is EGA text mode (Width/Height are in
	// characters, not pixels).
	FramebufferEGAText
)

// FramebufferInfo describes the framebuffer set up by the bootloader.
type FramebufferInfo struct {
	PhysAddr uint64
	Pitch    uint32
	Width    uint32
	Height   uint32
	Bpp      uint8
	Type     FramebufferType
}

// ElfSymbolsInfo describes the ELF section header table the bootloader
// copied in so the kernel can resolve addresses to symbol names for
// panic stack traces.
type ElfSymbolsInfo struct {
	SectionCount  uint32
	EntrySize     uint32
	StringTableIx uint32
	// SectionsAddr points at the first Elf64_Shdr entry.
	SectionsAddr uintptr
}

// Module describes one boot module (an ELF binary or blob loaded
// alongside the kernel image by the bootloader).
type Module struct {
	StartAddr uint64
	EndAddr   uint64
	CmdLine   string
}

// BootInfo is a handle on the Multiboot2 info block living at a fixed
// physical address. Every accessor rescans the tag list; the block is
// only read a handful of times during bring-up so there is no benefit
// to caching offsets.
type BootInfo struct {
	base uintptr
}

// FromPointer wraps the physical address of the Multiboot2 info block
// that the bootloader passed in RBX.
func FromPointer(ptr uintptr) *BootInfo {
	return &BootInfo{base: ptr}
}

// Validate reports whether magic matches the value the bootloader must
// present, confirming the kernel was entered via a genuine Multiboot2
// handoff.
func Validate(magic uint32) bool {
	return magic == Magic
}

// Size returns the total size in bytes of the info block, including its
// own header.
func (bi *BootInfo) Size() uint32 {
	return (*header)(unsafe.Pointer(bi.base)).totalSize
}

// CommandLine returns the kernel command line passed by the bootloader,
// if any.
func (bi *BootInfo) CommandLine() (string, bool) {
	ptr, size := bi.findTag(tagCmdline)
	if size == 0 {
		return "", false
	}
	return cStringAt(ptr, size), true
}

// BootLoaderName returns the name of the bootloader, if reported.
func (bi *BootInfo) BootLoaderName() (string, bool) {
	ptr, size := bi.findTag(tagBootLoaderName)
	if size == 0 {
		return "", false
	}
	return cStringAt(ptr, size), true
}

// Framebuffer returns the framebuffer description reported by the
// bootloader, if any.
func (bi *BootInfo) Framebuffer() (FramebufferInfo, bool) {
	ptr, size := bi.findTag(tagFramebufferInfo)
	if size == 0 {
		return FramebufferInfo{}, false
	}
	return *(*FramebufferInfo)(unsafe.Pointer(ptr)), true
}

// ElfSymbols returns the section header table location reported by the
// bootloader, used by the symbols package to resolve panic addresses.
func (bi *BootInfo) ElfSymbols() (ElfSymbolsInfo, bool) {
	ptr, size := bi.findTag(tagElfSymbols)
	if size == 0 {
		return ElfSymbolsInfo{}, false
	}

	type rawHeader struct {
		num     uint32
		entsize uint32
		shndx   uint32
		_       uint32
	}
	raw := (*rawHeader)(unsafe.Pointer(ptr))
	return ElfSymbolsInfo{
		SectionCount:  raw.num,
		EntrySize:     raw.entsize,
		StringTableIx: raw.shndx,
		SectionsAddr:  ptr + 16,
	}, true
}

// VisitMemRegions invokes visitor once per memory region described by
// the bootloader's memory map tag. Unrecognised entry types are
// normalised to MemReserved so the frame allocator never treats an
// unknown region as available.
func (bi *BootInfo) VisitMemRegions(visitor MemRegionVisitor) {
	ptr, size := bi.findTag(tagMemoryMap)
	if size == 0 {
		return
	}

	type mmapHeader struct {
		entrySize    uint32
		entryVersion uint32
	}
	mh := (*mmapHeader)(unsafe.Pointer(ptr))
	end := ptr + uintptr(size)
	cur := ptr + 8

	for cur < end {
		entry := (*MemoryMapEntry)(unsafe.Pointer(cur))
		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}
		if !visitor(entry) {
			return
		}
		cur += uintptr(mh.entrySize)
	}
}

// VisitModules invokes visitor once per boot module tag.
func (bi *BootInfo) VisitModules(visitor func(Module) bool) {
	cur := bi.base + 8
	end := bi.base + uintptr(bi.Size())

	for cur < end {
		th := (*tagHeader)(unsafe.Pointer(cur))
		if th.tagType == tagEnd {
			return
		}
		if th.tagType == tagModules {
			type rawModule struct {
				start uint32
				end   uint32
			}
			rm := (*rawModule)(unsafe.Pointer(cur + 8))
			mod := Module{
				StartAddr: uint64(rm.start),
				EndAddr:   uint64(rm.end),
				CmdLine:   cStringAt(cur+16, th.size-16),
			}
			if !visitor(mod) {
				return
			}
		}
		cur += alignedTagSize(th.size)
	}
}

// ACPIRSDP returns the raw bytes of the ACPI RSDP/XSDP tag payload, if
// present, so the acpi package can parse and checksum it without this
// package needing to know the RSDP layout.
func (bi *BootInfo) ACPIRSDP() ([]byte, bool) {
	ptr, size := bi.findTag(tagACPINew)
	if size == 0 {
		ptr, size = bi.findTag(tagACPIOld)
	}
	if size == 0 {
		return nil, false
	}
	return bytesAt(ptr, size), true
}

func (bi *BootInfo) findTag(want tagType) (uintptr, uint32) {
	cur := bi.base + 8
	end := bi.base + uintptr(bi.Size())

	for cur < end {
		th := (*tagHeader)(unsafe.Pointer(cur))
		if th.tagType == tagEnd {
			return 0, 0
		}
		if th.tagType == want {
			return cur + 8, th.size - 8
		}
		cur += alignedTagSize(th.size)
	}
	return 0, 0
}

func alignedTagSize(size uint32) uintptr {
	return uintptr((int32(size) + 7) &^ 7)
}

func cStringAt(ptr uintptr, size uint32) string {
	b := bytesAt(ptr, size)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func bytesAt(ptr uintptr, size uint32) []byte {
	var b []byte
	sh := (*sliceHeader)(unsafe.Pointer(&b))
	sh.Data = ptr
	sh.Len = int(size)
	sh.Cap = int(size)
	return b
}

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}
