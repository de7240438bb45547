package irq

import "testing"

func TestHasErrorCode(t *testing.T) {
	for _, v := range []Vector{DoubleFault, InvalidTSS, SegmentNotPresent, StackSegmentFault,
		GPFException, PageFaultException, AlignmentCheck, ControlProtectionException} {
		if !hasErrorCode(v) {
			t.Errorf("expected vector %d to carry an error code", v)
		}
	}
	for _, v := range []Vector{DivideByZero, Breakpoint, Overflow, IRQBase} {
		if hasErrorCode(v) {
			t.Errorf("did not expect vector %d to carry an error code", v)
		}
	}
}

func TestSetGateEncodesHandlerAddress(t *testing.T) {
	const fakeAddr = uintptr(0x1122334455667788)
	var e idtEntry
	idt[0] = e
	setGate(0, fakeAddr, gateTypeTrap)

	got := idt[0]
	gotAddr := uintptr(got.offsetLow) | uintptr(got.offsetMid)<<16 | uintptr(got.offsetHigh)<<32
	if gotAddr != fakeAddr {
		t.Fatalf("expected handler address %#x; got %#x", fakeAddr, gotAddr)
	}
	if got.selector != kernelCodeSegment {
		t.Fatalf("expected selector %#x; got %#x", kernelCodeSegment, got.selector)
	}
	if got.typeAttr != gateTypeTrap|dplKernel|present {
		t.Fatalf("expected typeAttr %#x; got %#x", gateTypeTrap|dplKernel|present, got.typeAttr)
	}
}
