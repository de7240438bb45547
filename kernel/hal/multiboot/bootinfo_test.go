package multiboot

import (
	"encoding/binary"
	"testing"
	"unsafe"
)

// buildInfo assembles a synthetic Multiboot2 info block: an 8-byte
// header followed by the given tags (each already including its own
// 8-byte tagHeader and padded to an 8-byte boundary), terminated by a
// type-0 tag.
func buildInfo(tags ...[]byte) []byte {
	buf := make([]byte, 8)

	for _, tag := range tags {
		buf = append(buf, tag...)
		if pad := (8 - len(tag)%8) % 8; pad != 0 {
			buf = append(buf, make([]byte, pad)...)
		}
	}

	buf = append(buf, 0, 0, 0, 0, 8, 0, 0, 0)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	return buf
}

func buildTag(tagType tagType, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(tagType))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))
	copy(buf[8:], payload)
	return buf
}

func infoFromBytes(b []byte) *BootInfo {
	return FromPointer(uintptr(unsafe.Pointer(&b[0])))
}

func TestValidate(t *testing.T) {
	if !Validate(0x36D76289) {
		t.Fatal("expected the real magic value to validate")
	}
	if Validate(0) {
		t.Fatal("expected a bogus magic value to fail validation")
	}
}

func TestCommandLine(t *testing.T) {
	data := buildInfo(buildTag(tagCmdline, append([]byte("root=/dev/sda1"), 0)))
	bi := infoFromBytes(data)

	cmdline, ok := bi.CommandLine()
	if !ok {
		t.Fatal("expected a command line tag to be found")
	}
	if cmdline != "root=/dev/sda1" {
		t.Errorf("expected %q; got %q", "root=/dev/sda1", cmdline)
	}

	empty := infoFromBytes(buildInfo())
	if _, ok := empty.CommandLine(); ok {
		t.Fatal("expected no command line tag to be found")
	}
}

func TestVisitMemRegions(t *testing.T) {
	entry := func(addr, length uint64, typ MemoryEntryType) []byte {
		buf := make([]byte, 24)
		binary.LittleEndian.PutUint64(buf[0:8], addr)
		binary.LittleEndian.PutUint64(buf[8:16], length)
		binary.LittleEndian.PutUint32(buf[16:20], uint32(typ))
		return buf
	}

	payload := make([]byte, 8)
	binary.LittleEndian.PutUint32(payload[0:4], 24)
	binary.LittleEndian.PutUint32(payload[4:8], 0)
	payload = append(payload, entry(0, 0x9FC00, MemAvailable)...)
	payload = append(payload, entry(0x100000, 0x7F00000, 99)...)

	data := buildInfo(buildTag(tagMemoryMap, payload))
	bi := infoFromBytes(data)

	var got []MemoryMapEntry
	bi.VisitMemRegions(func(e *MemoryMapEntry) bool {
		got = append(got, *e)
		return true
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 regions; got %d", len(got))
	}
	if got[0].Type != MemAvailable {
		t.Errorf("expected region 0 to be available; got %d", got[0].Type)
	}
	if got[1].Type != MemReserved {
		t.Errorf("expected unknown type 99 to be normalised to reserved; got %d", got[1].Type)
	}
}

func TestFramebuffer(t *testing.T) {
	payload := make([]byte, 24)
	binary.LittleEndian.PutUint64(payload[0:8], 0xB8000)
	binary.LittleEndian.PutUint32(payload[8:12], 160)
	binary.LittleEndian.PutUint32(payload[12:16], 80)
	binary.LittleEndian.PutUint32(payload[16:20], 25)
	payload[21] = byte(FramebufferEGAText)

	data := buildInfo(buildTag(tagFramebufferInfo, payload))
	bi := infoFromBytes(data)

	fb, ok := bi.Framebuffer()
	if !ok {
		t.Fatal("expected a framebuffer tag to be found")
	}
	if fb.PhysAddr != 0xB8000 {
		t.Errorf("expected phys addr 0xB8000; got %x", fb.PhysAddr)
	}
}
