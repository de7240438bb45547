package acpi

import (
	"testing"
	"unsafe"
)

func putSDTHeader(b []byte, signature string, length uint32) {
	copy(b[0:4], signature)
	b[4] = byte(length)
	b[5] = byte(length >> 8)
	b[6] = byte(length >> 16)
	b[7] = byte(length >> 24)
}

func buildFADT() []byte {
	b := make([]byte, 36)
	putSDTHeader(b, "FACP", 36)
	return b
}

func buildRSDT(fadtAddr uintptr) []byte {
	b := make([]byte, 40)
	putSDTHeader(b, "RSDT", 40)
	addr := uint32(fadtAddr)
	b[36] = byte(addr)
	b[37] = byte(addr >> 8)
	b[38] = byte(addr >> 16)
	b[39] = byte(addr >> 24)
	return b
}

func buildRSDPv1(rsdtAddr uintptr) []byte {
	b := make([]byte, 20)
	copy(b[0:8], rsdpSignature)
	copy(b[9:15], "KERNL ")
	b[15] = 0 // revision 0 == ACPI 1.0
	addr := uint32(rsdtAddr)
	b[16] = byte(addr)
	b[17] = byte(addr >> 8)
	b[18] = byte(addr >> 16)
	b[19] = byte(addr >> 24)
	b[8] = 0
	b[8] = byte(-int(checksum8(b)))
	return b
}

func TestParseRSDPAndGetEntry(t *testing.T) {
	// RSDT entries and the v1 RSDP hold 32-bit physical addresses, so
	// the tables get small fake addresses that readPhysFn maps back onto
	// the Go buffers.
	const rsdtAddr, fadtAddr = uintptr(0x1000), uintptr(0x2000)
	fadt := buildFADT()
	rsdt := buildRSDT(fadtAddr)
	rsdp := buildRSDPv1(rsdtAddr)

	tables := map[uintptr][]byte{rsdtAddr: rsdt, fadtAddr: fadt}
	origReadPhys := readPhysFn
	readPhysFn = func(addr uintptr) unsafe.Pointer {
		for base, b := range tables {
			if addr >= base && addr < base+uintptr(len(b)) {
				return unsafe.Pointer(&b[addr-base])
			}
		}
		t.Fatalf("unexpected physical read at %#x", addr)
		return nil
	}
	t.Cleanup(func() { readPhysFn = origReadPhys })

	root = rootTable{}
	if err := parseRSDP(rsdp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hdr, ok := GetEntry("FACP")
	if !ok {
		t.Fatal("expected to find the FACP entry")
	}
	if string(hdr.Signature[:]) != "FACP" {
		t.Fatalf("expected FACP signature; got %q", hdr.Signature)
	}

	if _, ok := GetEntry("APIC"); ok {
		t.Fatal("did not expect to find an APIC entry that was never added")
	}
}

func TestParseRSDPRejectsBadSignature(t *testing.T) {
	b := make([]byte, 20)
	copy(b[0:8], "NOT RSDP")
	if err := parseRSDP(b); err != errBadRSDPSignature {
		t.Fatalf("expected errBadRSDPSignature; got %v", err)
	}
}

func TestParseRSDPRejectsBadChecksum(t *testing.T) {
	b := buildRSDPv1(0x1000)
	b[8] ^= 0xFF // corrupt the checksum byte
	if err := parseRSDP(b); err != errBadRSDPChecksum {
		t.Fatalf("expected errBadRSDPChecksum; got %v", err)
	}
}
