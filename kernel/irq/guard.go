package irq

import "kernelcore/kernel/cpu"

const interruptFlagBit = 1 << 9

var (
	flagsRegisterFn     = cpu.FlagsRegister
	disableInterruptsFn = cpu.DisableInterrupts
	enableInterruptsFn  = cpu.EnableInterrupts
)

// Guard disables interrupts for the duration of a critical section and
// restores them to whatever state they were in before the guard was
// taken. Go has no destructors, so unlike the RAII type it is modeled
// on, callers must call Restore explicitly, typically via defer:
//
//	g := irq.Enter()
//	defer g.Restore()
type Guard struct {
	wasEnabled bool
	restored   bool
}

// Enter disables interrupts and returns a Guard that will restore the
// previous interrupt-enable state when Restore is called.
func Enter() Guard {
	wasEnabled := flagsRegisterFn()&interruptFlagBit != 0
	disableInterruptsFn()
	return Guard{wasEnabled: wasEnabled}
}

// Restore re-enables interrupts, but only if they were enabled at the
// point Enter was called; nesting two guards and restoring the inner
// one first leaves interrupts disabled until the outer guard restores.
func (g *Guard) Restore() {
	if g.restored {
		return
	}
	g.restored = true
	if g.wasEnabled {
		enableInterruptsFn()
	}
}
