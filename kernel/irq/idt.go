package irq

import (
	"unsafe"

	"kernelcore/kernel/cpu"
)

// Vector identifies an IDT slot.
type Vector uint8

// The CPU-reserved exception vectors. Vectors below IRQBase without a
// name here (9, 15, 22-31) still get their own trampoline; dispatch
// treats them like any exception that has no registered handler.
const (
	DivideByZero                Vector = 0
	Debug                       Vector = 1
	NMI                         Vector = 2
	Breakpoint                  Vector = 3
	Overflow                    Vector = 4
	BoundRangeExceeded          Vector = 5
	InvalidOpcode               Vector = 6
	DeviceNotAvailable          Vector = 7
	DoubleFault                 Vector = 8
	InvalidTSS                  Vector = 10
	SegmentNotPresent           Vector = 11
	StackSegmentFault           Vector = 12
	GPFException                Vector = 13
	PageFaultException          Vector = 14
	FloatingPointException      Vector = 16
	AlignmentCheck              Vector = 17
	MachineCheck                Vector = 18
	SIMDFloatingPointException  Vector = 19
	VirtualizationException     Vector = 20
	ControlProtectionException  Vector = 21
)

// IRQBase is the vector the master PIC's IRQ0 is remapped to during
// PICInit, chosen to sit past the 32 CPU-reserved exception vectors.
const IRQBase Vector = 0x20

// hasErrorCode reports whether the CPU pushes an architectural error
// code onto the stack for v before transferring control; for every other
// vector the trampoline pushes a dummy 0 in its place so the stack
// layout is uniform.
func hasErrorCode(v Vector) bool {
	switch v {
	case DoubleFault, InvalidTSS, SegmentNotPresent, StackSegmentFault,
		GPFException, PageFaultException, AlignmentCheck, ControlProtectionException:
		return true
	default:
		return false
	}
}

const (
	gateTypeInterrupt = 0xE
	gateTypeTrap      = 0xF
	dplKernel         = 0x0 << 5
	present           = 0x1 << 7
)

// Segment selectors from the kernel's GDT. Exported so other packages
// that build a synthetic CPU frame from scratch - the scheduler, when
// starting a brand new thread - use the same selectors the boot
// trampoline installed rather than hard-coding a second copy.
const (
	KernelCodeSegment = 0x08
	KernelDataSegment = 0x10
)

const kernelCodeSegment = KernelCodeSegment

// idtEntry is a single 16-byte x86_64 IDT gate descriptor.
type idtEntry struct {
	offsetLow  uint16
	selector   uint16
	ist        uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

type idtr struct {
	limit uint16
	base  uint64
}

// generatedVectors is the number of distinct assembly trampoline entry
// points: the 32 CPU exception/reserved vectors plus the 16 PIC
// hardware IRQ lines. Index ignoreVectorSlot is one further stub that
// every vector from generatedVectors to 255 shares, since a minimal
// kernel core only needs individually addressable stubs for the
// vectors it actually dispatches on.
const (
	generatedVectors = 48
	ignoreVectorSlot = generatedVectors
)

var idt [256]idtEntry

var idtPtr idtr

func setGate(v Vector, handlerAddr uintptr, gateType uint8) {
	e := &idt[v]
	*e = idtEntry{}
	e.offsetLow = uint16(handlerAddr)
	e.selector = kernelCodeSegment
	e.ist = 0
	e.typeAttr = gateType | dplKernel | present
	e.offsetMid = uint16(handlerAddr >> 16)
	e.offsetHigh = uint32(handlerAddr >> 32)
}

// vectorAddr returns the entry address of the assembly stub generated
// for vector v, implemented in vectors_amd64.s via a label address
// table so the Go side never needs to take the address of an
// assembly-only symbol through reflection.
func vectorAddr(v uint8) uintptr

// Init builds the IDT, points every generated vector at its trampoline,
// fills the remainder with the shared ignore stub, and loads it with
// lidt. Must run before EnableInterrupts is ever called.
func Init() {
	for v := 0; v < generatedVectors; v++ {
		gateType := uint8(gateTypeTrap)
		if Vector(v) >= IRQBase {
			gateType = gateTypeInterrupt
		}
		setGate(Vector(v), vectorAddr(uint8(v)), gateType)
	}

	ignoreAddr := vectorAddr(ignoreVectorSlot)
	for v := generatedVectors; v < 256; v++ {
		setGate(Vector(v), ignoreAddr, gateTypeInterrupt)
	}

	idtPtr.limit = uint16(unsafe.Sizeof(idt) - 1)
	idtPtr.base = uint64(uintptr(unsafe.Pointer(&idt[0])))
	cpu.LoadIDT(uintptr(unsafe.Pointer(&idtPtr)))
}
