// Package symbols resolves a return address to the ELF64 function
// symbol that contains it, using the section header table the
// bootloader copies into the multiboot2 info block. It exists purely
// to symbolize panic stack traces; it is wired into kernel.Panic via
// kernel.SetSymbolResolver during bring-up.
package symbols

import (
	"unsafe"

	"kernelcore/kernel/hal/multiboot"
)

const (
	shtSymtab = 2
	shtStrtab = 3

	sttFunc = 2
)

// elf64SectionHeader mirrors Elf64_Shdr.
type elf64SectionHeader struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

// elf64Sym mirrors Elf64_Sym.
type elf64Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

var (
	symtabAddr uintptr
	symtabSize uint64
	strtabAddr uintptr
)

// Init locates the SYMTAB/STRTAB section pair out of the ELF section
// headers the bootloader reported. It is safe to call even when the
// bootloader provided no symbol information; Lookup simply always
// misses in that case.
func Init(bi *multiboot.BootInfo) {
	info, ok := bi.ElfSymbols()
	if !ok {
		return
	}

	sections := (*[1 << 16]elf64SectionHeader)(unsafe.Pointer(info.SectionsAddr))

	var symtab *elf64SectionHeader
	for i := uint32(0); i < info.SectionCount; i++ {
		if sections[i].Type == shtSymtab {
			symtab = &sections[i]
			break
		}
	}
	if symtab == nil {
		return
	}
	if symtab.Link >= info.SectionCount || sections[symtab.Link].Type != shtStrtab {
		return
	}

	symtabAddr = uintptr(symtab.Addr)
	symtabSize = symtab.Size
	strtabAddr = uintptr(sections[symtab.Link].Addr)
}

// Available reports whether Init found a usable symbol table.
func Available() bool {
	return strtabAddr != 0
}

// Lookup returns the name and start address of the function symbol
// containing addr.
func Lookup(addr uintptr) (name string, start uintptr, ok bool) {
	if !Available() {
		return "", 0, false
	}

	count := symtabSize / uint64(unsafe.Sizeof(elf64Sym{}))
	syms := (*[1 << 20]elf64Sym)(unsafe.Pointer(symtabAddr))

	for i := uint64(0); i < count; i++ {
		sym := &syms[i]
		if sym.Info&0xF != sttFunc || sym.Size == 0 {
			continue
		}
		if uint64(addr) >= sym.Value && uint64(addr) < sym.Value+sym.Size {
			return cString(strtabAddr + uintptr(sym.Name)), uintptr(sym.Value), true
		}
	}
	return "", 0, false
}

func cString(addr uintptr) string {
	buf := (*[4096]byte)(unsafe.Pointer(addr))
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n])
}
