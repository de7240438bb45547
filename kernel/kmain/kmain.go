// Package kmain sequences bring-up: it is the one place allowed to
// import every subsystem package, since kernel.Error-returning
// packages like pmm, acpi and sched all depend on kernel itself and
// could not be imported from there without an import cycle.
package kmain

import (
	"kernelcore/kernel"
	"kernelcore/kernel/cpu"
	"kernelcore/kernel/hal"
	"kernelcore/kernel/hal/acpi"
	"kernelcore/kernel/hal/multiboot"
	"kernelcore/kernel/irq"
	"kernelcore/kernel/kfmt/early"
	"kernelcore/kernel/mem/pmm"
	"kernelcore/kernel/sched"
	"kernelcore/kernel/symbols"
)

var (
	errBadMultibootMagic = &kernel.Error{Module: "kmain", Message: "bad multiboot2 magic"}
	errKmainReturned     = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
)

// Kmain is the kernel's Go entry point, called from main with the
// values the rt0 assembly trampoline stored there. It runs with
// interrupts disabled and a minimal bootstrap stack; it
// brings up every subsystem in dependency order and finally hands off
// to the scheduler, which does not return.
//
// The rt0 code passes the multiboot2 magic value the bootloader left
// in EAX, the physical address of the multiboot2 info block, and the
// physical address range the kernel image itself occupies (so the
// frame allocator never hands out a frame the kernel is sitting on).
//
//go:noinline
func Kmain(multibootMagic uint32, multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	if !multiboot.Validate(multibootMagic) {
		kernel.Panic(errBadMultibootMagic)
	}
	bi := multiboot.FromPointer(multibootInfoPtr)

	hal.InitTerminal(bi)
	hal.ActiveTerminal.Clear()
	early.Printf("kernelcore booting\n")

	cpu.EnableSSE()

	irq.Init()
	irq.PICInit()

	if err := pmm.FrameAllocator.Init(bi, kernelStart, kernelEnd); err != nil {
		kernel.Panic(err)
	}

	symbols.Init(bi)
	kernel.SetSymbolResolver(symbols.Lookup)

	if err := acpi.Init(bi); err != nil {
		early.Printf("[kmain] ACPI unavailable: %s\n", err.Error())
	}

	sched.Init()
	sched.Start()

	// sched.Start never returns; Panic here only guards against the
	// compiler treating this call as dead code and eliminating it.
	kernel.Panic(errKmainReturned)
}
