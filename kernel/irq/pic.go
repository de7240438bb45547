package irq

import "kernelcore/kernel/cpu"

const (
	masterPICCmd  = 0x20
	masterPICData = 0x21
	slavePICCmd   = 0xA0
	slavePICData  = 0xA1

	icw1ICW4 = 0x01 // ICW4 will be present
	icw1Init = 0x10 // initialization, required

	icw4_8086 = 0x01 // 8086/88 mode

	picEOI = 0x20
)

// in8Fn/out8Fn/ioWaitFn are substituted by tests with a fake I/O bus so
// the remap/mask/EOI sequences can be exercised without real hardware
// ports.
var (
	in8Fn    = cpu.InPort8
	out8Fn   = cpu.OutPort8
	ioWaitFn = cpu.IOWait
)

// PICInit remaps the 8259 PIC pair so that IRQ0-15 land on vectors
// IRQBase..IRQBase+15 instead of their power-on default of 0x08/0x70,
// which collide with CPU exception vectors, then masks every line.
// Callers unmask individual lines with PICClearMask once a handler has
// been installed with HandleIRQ.
func PICInit() {
	picRemap(uint8(IRQBase), uint8(IRQBase)+8)

	out8Fn(masterPICData, 0xFF)
	out8Fn(slavePICData, 0xFF)
}

func picRemap(master, slave uint8) {
	masterMask := in8Fn(masterPICData)
	slaveMask := in8Fn(slavePICData)

	out8Fn(masterPICCmd, icw1Init|icw1ICW4)
	ioWaitFn()
	out8Fn(slavePICCmd, icw1Init|icw1ICW4)
	ioWaitFn()

	out8Fn(masterPICData, master)
	ioWaitFn()
	out8Fn(slavePICData, slave)
	ioWaitFn()

	// tell the master there is a slave at IRQ2, and tell the slave its
	// own cascade identity
	out8Fn(masterPICData, 4)
	ioWaitFn()
	out8Fn(slavePICData, 2)
	ioWaitFn()

	out8Fn(masterPICData, icw4_8086)
	ioWaitFn()
	out8Fn(slavePICData, icw4_8086)
	ioWaitFn()

	out8Fn(masterPICData, masterMask)
	out8Fn(slavePICData, slaveMask)
}

// PICEOI signals end-of-interrupt for the given IRQ line, required
// before the PIC will deliver another interrupt on that line or any
// line of equal or lower priority.
func PICEOI(irqLine uint8) {
	if irqLine >= 8 {
		out8Fn(slavePICCmd, picEOI)
	}
	out8Fn(masterPICCmd, picEOI)
}

// PICSetMask masks (disables) delivery of irqLine.
func PICSetMask(irqLine uint8) {
	port, bit := picPortAndBit(irqLine)
	out8Fn(port, in8Fn(port)|bit)
}

// PICClearMask unmasks (enables) delivery of irqLine.
func PICClearMask(irqLine uint8) {
	port, bit := picPortAndBit(irqLine)
	out8Fn(port, in8Fn(port)&^bit)
}

func picPortAndBit(irqLine uint8) (port uint16, bit uint8) {
	if irqLine < 8 {
		return masterPICData, 1 << irqLine
	}
	return slavePICData, 1 << (irqLine - 8)
}
