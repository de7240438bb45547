package symbols

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"kernelcore/kernel/hal/multiboot"
)

func putShdr(b []byte, typ uint32, addr, size uint64, link uint32) {
	binary.LittleEndian.PutUint32(b[4:8], typ)
	binary.LittleEndian.PutUint64(b[16:24], addr)
	binary.LittleEndian.PutUint64(b[32:40], size)
	binary.LittleEndian.PutUint32(b[40:44], link)
}

func putSym(b []byte, name uint32, info uint8, value, size uint64) {
	binary.LittleEndian.PutUint32(b[0:4], name)
	b[4] = info
	binary.LittleEndian.PutUint64(b[8:16], value)
	binary.LittleEndian.PutUint64(b[16:24], size)
}

func buildBootInfo(t *testing.T, sectionsPayload []byte) *multiboot.BootInfo {
	t.Helper()

	header := make([]byte, 16)
	binary.LittleEndian.PutUint32(header[0:4], 2) // num sections
	binary.LittleEndian.PutUint32(header[4:8], 64) // entsize
	binary.LittleEndian.PutUint32(header[8:12], 1) // shndx (unused by this package)

	payload := append(header, sectionsPayload...)

	tag := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(tag[0:4], 9) // tagElfSymbols
	binary.LittleEndian.PutUint32(tag[4:8], uint32(len(tag)))
	copy(tag[8:], payload)

	buf := make([]byte, 8)
	buf = append(buf, tag...)
	if pad := (8 - len(tag)%8) % 8; pad != 0 {
		buf = append(buf, make([]byte, pad)...)
	}
	buf = append(buf, 0, 0, 0, 0, 8, 0, 0, 0) // terminator tag
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))

	return multiboot.FromPointer(uintptr(unsafe.Pointer(&buf[0])))
}

func TestLookupResolvesFunctionSymbol(t *testing.T) {
	strtab := []byte("\x00kmain\x00")
	symtab := make([]byte, 24*2)
	putSym(symtab[0:24], 0, 0, 0, 0) // null symbol
	putSym(symtab[24:48], 1, sttFunc, 0x1000, 0x40)

	sections := make([]byte, 64*2)
	putShdr(sections[0:64], shtSymtab, uint64(uintptr(unsafe.Pointer(&symtab[0]))), uint64(len(symtab)), 1)
	putShdr(sections[64:128], shtStrtab, uint64(uintptr(unsafe.Pointer(&strtab[0]))), uint64(len(strtab)), 0)

	bi := buildBootInfo(t, sections)
	Init(bi)

	if !Available() {
		t.Fatal("expected symbol table to be available after Init")
	}

	name, start, ok := Lookup(0x1010)
	if !ok {
		t.Fatal("expected to resolve an address inside the function")
	}
	if name != "kmain" || start != 0x1000 {
		t.Fatalf("expected kmain@0x1000; got %s@%#x", name, start)
	}

	if _, _, ok := Lookup(0x2000); ok {
		t.Fatal("did not expect to resolve an address outside any symbol")
	}
}

func TestLookupWithoutInitMisses(t *testing.T) {
	symtabAddr, symtabSize, strtabAddr = 0, 0, 0
	if _, _, ok := Lookup(0x1234); ok {
		t.Fatal("expected Lookup to miss before Init finds a symbol table")
	}
}
