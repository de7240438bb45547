package irq

import "kernelcore/kernel/kfmt/early"

// ExceptionHandler handles a CPU exception that does not push an
// architectural error code. Modifications made to frame or regs are
// propagated back to the interrupted context when the handler returns.
type ExceptionHandler func(frame *Frame, regs *Regs)

// ExceptionHandlerWithCode handles a CPU exception that pushes an
// architectural error code (e.g. PageFaultException).
type ExceptionHandlerWithCode func(errCode uint64, frame *Frame, regs *Regs)

// IRQHandler handles a hardware interrupt delivered through the PIC.
// The handler is responsible for acknowledging the interrupt via
// PICEOI; dispatch does not do this automatically so a handler can
// defer the EOI past a context switch.
type IRQHandler func(frame *Frame, regs *Regs)

var (
	exceptionHandlers         [32]ExceptionHandler
	exceptionHandlersWithCode [32]ExceptionHandlerWithCode
	irqHandlers               [16]IRQHandler
)

// HandleException registers handler for a CPU exception vector that
// does not carry an error code. Panics if v carries one; use
// HandleExceptionWithCode instead.
func HandleException(v Vector, handler ExceptionHandler) {
	if hasErrorCode(v) {
		panic("irq: vector pushes an error code, use HandleExceptionWithCode")
	}
	exceptionHandlers[v] = handler
}

// HandleExceptionWithCode registers handler for a CPU exception vector
// that carries an architectural error code.
func HandleExceptionWithCode(v Vector, handler ExceptionHandlerWithCode) {
	if !hasErrorCode(v) {
		panic("irq: vector does not push an error code, use HandleException")
	}
	exceptionHandlersWithCode[v] = handler
}

// HandleIRQ registers handler for hardware IRQ line irqLine (0-15),
// which dispatch invokes for vector IRQBase+irqLine. Those vectors only
// carry the PIC lines after PICInit has remapped the controller.
func HandleIRQ(irqLine uint8, handler IRQHandler) {
	irqHandlers[irqLine] = handler
}

// ClearIRQ removes a previously installed IRQ handler.
func ClearIRQ(irqLine uint8) {
	irqHandlers[irqLine] = nil
}

// dispatch is called by the assembly trampoline in vectors_amd64.s for
// every generated vector, via the ABI0 stack-argument calling
// convention every Go function exposes to hand-written assembly. The
// vector number travels as a full uint64 rather than uint8 purely to
// keep every argument slot a uniform 8 bytes wide for the trampoline.
func dispatch(vector uint64, errCode uint64, frame *Frame, regs *Regs) {
	v := Vector(vector)
	switch {
	case v < IRQBase:
		dispatchException(v, errCode, frame, regs)
	case v < IRQBase+16:
		irqLine := uint8(v - IRQBase)
		if h := irqHandlers[irqLine]; h != nil {
			h(frame, regs)
		}
	}
}

func dispatchException(v Vector, errCode uint64, frame *Frame, regs *Regs) {
	if hasErrorCode(v) {
		if h := exceptionHandlersWithCode[v]; h != nil {
			h(errCode, frame, regs)
			return
		}
	} else {
		if h := exceptionHandlers[v]; h != nil {
			h(frame, regs)
			return
		}
	}

	early.Printf("unhandled exception %d (error code %x)\n", v, errCode)
	frame.Print()
	regs.Print()
	panic("unhandled CPU exception")
}
