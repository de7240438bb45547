package main

import "kernelcore/kernel/kmain"

// These are populated by the rt0 assembly trampoline before it jumps
// here: multibootMagic/multibootInfoPtr come from the registers the
// multiboot2-compliant bootloader left set on entry, kernelStart/
// kernelEnd bound the physical range the linker placed the kernel
// image in.
var (
	multibootMagic   uint32
	multibootInfoPtr uintptr
	kernelStart      uintptr
	kernelEnd        uintptr
)

// main makes a dummy call to the real kernel entry point. It is
// intentionally defined this way, rather than calling kmain.Kmain
// directly with constants, so the compiler cannot treat the call as
// dead code and eliminate it from the generated object file.
func main() {
	kmain.Kmain(multibootMagic, multibootInfoPtr, kernelStart, kernelEnd)
}
