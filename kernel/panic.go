package kernel

import (
	"kernelcore/kernel/cpu"
	"kernelcore/kernel/kfmt/early"
)

var (
	// cpuHaltFn is a variable so that tests can substitute it for the
	// real halt loop.
	cpuHaltFn = cpu.HaltForever

	// symbolLookupFn resolves a return address to the nearest function
	// symbol for the panic stack trace. Bring-up installs symbols.Lookup
	// here via SetSymbolResolver, so that this low-level package does
	// not need to import the symbols package directly.
	symbolLookupFn func(addr uintptr) (name string, start uintptr, ok bool)

	// traceFn captures the caller's return addresses. It is installed
	// through SetStackTracer; kmain does not install one, so it stays
	// nil and Panic skips the trace.
	traceFn func(skip int, pc []uintptr) int

	errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}
)

// SetSymbolResolver installs the function used to symbolize stack trace
// addresses printed by Panic. Called once during bring-up after the
// symbols package has parsed the ELF symbol table out of the boot info.
func SetSymbolResolver(fn func(addr uintptr) (name string, start uintptr, ok bool)) {
	symbolLookupFn = fn
}

// SetStackTracer installs the function used to capture return addresses
// for the panic stack trace.
func SetStackTracer(fn func(skip int, pc []uintptr) int) {
	traceFn = fn
}

// Panic outputs the supplied error (if not nil), a symbolized stack
// trace if a tracer has been installed with SetStackTracer, and halts
// the CPU with interrupts disabled. Calls to Panic
// never return. It also works as a redirection target for calls to the
// builtin panic() (resolved via runtime.gopanic in the kernel build).
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	cpu.DisableInterrupts()

	var err *Error
	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	early.Printf("\n-----------------------------------\n")
	if err != nil {
		early.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}

	printTrace()

	early.Printf("*** kernel panic: system halted ***")
	early.Printf("\n-----------------------------------\n")

	cpuHaltFn()
}

// printTrace walks the call stack (if a tracer has been installed) and
// prints a symbolized frame per return address.
func printTrace() {
	if traceFn == nil {
		return
	}

	var pc [32]uintptr
	n := traceFn(2, pc[:])
	if n == 0 {
		return
	}

	early.Printf("stack trace:\n")
	for i := 0; i < n; i++ {
		addr := pc[i]
		if symbolLookupFn == nil {
			early.Printf("  [%2d] %16x\n", i, addr)
			continue
		}

		name, start, ok := symbolLookupFn(addr)
		if !ok {
			early.Printf("  [%2d] %16x ???\n", i, addr)
			continue
		}
		early.Printf("  [%2d] %16x %s+%x\n", i, addr, name, addr-start)
	}
}
