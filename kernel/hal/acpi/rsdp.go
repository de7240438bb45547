// Package acpi locates the ACPI root tables via the RSDP the bootloader
// hands off in the multiboot2 info block, and resolves individual
// system description tables (FADT, MADT, ...) by their four-character
// signature. Only discovery is implemented; interpreting any
// particular table's contents is left to whatever subsystem needs it.
package acpi

import (
	"unsafe"

	"kernelcore/kernel"
	"kernelcore/kernel/hal/multiboot"
)

var (
	errNoRSDP           = &kernel.Error{Module: "acpi", Message: "bootloader did not report an ACPI RSDP"}
	errBadRSDPSignature = &kernel.Error{Module: "acpi", Message: "RSDP signature mismatch"}
	errBadRSDPChecksum  = &kernel.Error{Module: "acpi", Message: "RSDP checksum mismatch"}
	errNoRootTable      = &kernel.Error{Module: "acpi", Message: "RSDP does not point at a usable RSDT/XSDT"}
)

const rsdpSignature = "RSD PTR "

// SDTHeader is the 36-byte header shared by every ACPI system
// description table (RSDT, XSDT, FADT, MADT, ...).
type SDTHeader struct {
	Signature       [4]byte
	Length          uint32
	Revision        uint8
	Checksum        uint8
	OEMID           [6]byte
	OEMTableID      [8]byte
	OEMRevision     uint32
	CreatorID       uint32
	CreatorRevision uint32
}

// rootTable records where the root system description table lives and
// whether its entries are 4-byte (RSDT) or 8-byte (XSDT) physical
// addresses.
type rootTable struct {
	base    uintptr
	entries int
	wide    bool // true for XSDT (8-byte entries), false for RSDT (4-byte)
}

var root rootTable

// readPhysFn dereferences a physical address read during table
// traversal. Tests substitute an indirection into ordinary Go-managed
// buffers; on real hardware this assumes the region is covered by the
// identity mapping bring-up installs for the first few megabytes of
// physical memory, which is where firmware places ACPI tables.
var readPhysFn = func(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}

// Init parses the RSDP multiboot handed off and records the root
// table's location so GetEntry can walk it.
func Init(bi *multiboot.BootInfo) *kernel.Error {
	payload, ok := bi.ACPIRSDP()
	if !ok {
		return errNoRSDP
	}
	return parseRSDP(payload)
}

func parseRSDP(b []byte) *kernel.Error {
	if len(b) < 20 || string(b[0:8]) != rsdpSignature {
		return errBadRSDPSignature
	}
	if checksum8(b[0:20]) != 0 {
		return errBadRSDPChecksum
	}

	revision := b[15]
	if revision >= 2 && len(b) >= 36 {
		if checksum8(b[0:36]) != 0 {
			return errBadRSDPChecksum
		}
		xsdtAddr := leUint64(b[24:32])
		if xsdtAddr == 0 {
			return errNoRootTable
		}
		root = rootTable{base: uintptr(xsdtAddr), wide: true}
	} else {
		rsdtAddr := leUint32(b[16:20])
		if rsdtAddr == 0 {
			return errNoRootTable
		}
		root = rootTable{base: uintptr(rsdtAddr), wide: false}
	}

	header := (*SDTHeader)(readPhysFn(root.base))
	entryBytes := int(header.Length) - int(unsafe.Sizeof(SDTHeader{}))
	if entryBytes < 0 {
		entryBytes = 0
	}
	width := 4
	if root.wide {
		width = 8
	}
	root.entries = entryBytes / width
	return nil
}

// GetEntry returns the header of the system description table whose
// four-character signature matches, searching the root table recorded
// by Init.
func GetEntry(signature string) (*SDTHeader, bool) {
	if root.base == 0 {
		return nil, false
	}

	dataStart := root.base + unsafe.Sizeof(SDTHeader{})
	for i := 0; i < root.entries; i++ {
		var tableAddr uintptr
		if root.wide {
			entryPtr := (*uint64)(readPhysFn(dataStart + uintptr(i*8)))
			tableAddr = uintptr(*entryPtr)
		} else {
			entryPtr := (*uint32)(readPhysFn(dataStart + uintptr(i*4)))
			tableAddr = uintptr(*entryPtr)
		}

		header := (*SDTHeader)(readPhysFn(tableAddr))
		if string(header.Signature[:]) == signature {
			return header, true
		}
	}
	return nil, false
}

func checksum8(b []byte) uint8 {
	var sum uint8
	for _, v := range b {
		sum += v
	}
	return sum
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
