// Package cpu exposes the small set of x86_64 instructions the kernel
// core needs that cannot be expressed in Go: interrupt masking, TLB
// control, page-table base switching, and reading machine state. Each
// function is declared here and implemented in cpu_amd64.s.
package cpu

// EnableInterrupts sets the interrupt flag (sti).
func EnableInterrupts()

// DisableInterrupts clears the interrupt flag (cli).
func DisableInterrupts()

// FlagsRegister returns the current value of RFLAGS.
func FlagsRegister() uint64

// Halt stops instruction execution until the next interrupt (hlt).
func Halt()

// HaltForever loops on hlt indefinitely; used by the panic path after
// interrupts have been disabled.
func HaltForever()

// FlushTLBEntry invalidates a single TLB entry for virtAddr (invlpg).
func FlushTLBEntry(virtAddr uintptr)

// FlushTLB reloads CR3 with its current value, invalidating the entire TLB.
func FlushTLB()

// SwitchPDT loads physAddr into CR3, activating a new top-level page table
// and flushing the TLB as a side effect.
func SwitchPDT(physAddr uintptr)

// ActivePDT returns the physical address currently loaded in CR3.
func ActivePDT() uintptr

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uintptr

// Rdtsc returns the current value of the invariant time-stamp counter.
func Rdtsc() uint64

// EnableSSE performs the CR0/CR4 bit manipulation required to allow the
// kernel to use SSE/SSE2 instructions: clears CR0.EM, sets CR0.MP, and
// sets CR4.OSFXSR|OSXMMEXCPT, per spec.
func EnableSSE()

// LoadIDT loads the interrupt descriptor table pointed to by idtrAddr
// (an IDTR structure: 2-byte limit, 8-byte base) via lidt.
func LoadIDT(idtrAddr uintptr)

// InvokeInterrupt32 raises a software interrupt on vector 32, used by
// the scheduler's Yield to re-enter the context-switch path.
func InvokeInterrupt32()

// InPort8 reads a byte from the given I/O port.
func InPort8(port uint16) uint8

// OutPort8 writes a byte to the given I/O port.
func OutPort8(port uint16, value uint8)

// IOWait performs a tiny delay by writing to an unused port, giving the
// legacy PIC/PIT time to process the previous I/O operation.
func IOWait()
