// Package hal wires the concrete console/terminal devices that the rest
// of the kernel addresses through a single well-known variable, the way
// a hardware-abstraction layer insulates the core from a particular
// board's devices.
package hal

import (
	"kernelcore/kernel/driver/tty"
	"kernelcore/kernel/driver/video/console"
	"kernelcore/kernel/hal/multiboot"
	"kernelcore/kernel/kfmt/early"
)

var (
	vgaConsole = &console.VGA{}

	// ActiveTerminal is the console every early-boot log line and panic
	// message is written to.
	ActiveTerminal = &tty.VT{}
)

// InitTerminal brings up a basic terminal so the kernel can emit
// diagnostics before any other subsystem is ready.
func InitTerminal(info *multiboot.BootInfo) {
	fb, ok := info.Framebuffer()
	if !ok {
		// No framebuffer tag; fall back to the well-known legacy VGA
		// text-mode buffer physical address and 80x25 dimensions.
		vgaConsole.Init(80, 25, 0xB8000)
	} else {
		vgaConsole.Init(uint16(fb.Width), uint16(fb.Height), uintptr(fb.PhysAddr))
	}

	ActiveTerminal.AttachTo(vgaConsole)
	early.SetTarget(ActiveTerminal)
}
