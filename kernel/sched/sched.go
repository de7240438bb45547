package sched

import (
	"container/heap"

	"kernelcore/kernel"
	"kernelcore/kernel/cpu"
	"kernelcore/kernel/irq"
	"kernelcore/kernel/kfmt/early"
	"kernelcore/kernel/mem"
	"kernelcore/kernel/mem/pmm"
	"kernelcore/kernel/mem/vmm"
)

// timerIRQLine is the PIC IRQ line (and, after remapping, IDT vector
// IRQBase+timerIRQLine) the scheduler drives itself from.
const timerIRQLine = 0

// stackRegionBase is the virtual address threads' 4KiB stacks are
// mapped into, each one page apart from an unmapped guard page so a
// stack overflow faults instead of corrupting the next thread's stack.
const stackRegionBase uintptr = 0xffffa00000000000

var (
	threads    []*Thread
	currentIdx int
	sleeping   sleepQueue

	errNoStack = &kernel.Error{Module: "sched", Message: "no physical frame available for thread stack"}
)

// Mockable indirections over hardware/other-subsystem state, following
// the same pattern as irq.Guard and irq.PIC*, so scheduling logic can
// be exercised without a real IDT, PIC or page tables.
var (
	allocStackFn        = defaultAllocStack
	freeStackFn         = defaultFreeStack
	picClearMaskFn      = irq.PICClearMask
	picEOIFn            = irq.PICEOI
	enableInterruptsFn  = cpu.EnableInterrupts
	invokeInterrupt32Fn = cpu.InvokeInterrupt32
)

func current() *Thread {
	return threads[currentIdx]
}

// Init creates the bootstrap thread representing the execution context
// Init itself runs on, and installs the timer IRQ handler that drives
// every future context switch. It must run with interrupts still
// disabled.
func Init() {
	early.Printf("[sched] initializing scheduler...\n")

	boot := &Thread{ID: allocThreadID(), Status: StatusRunning}
	threads = append(threads, boot)
	currentIdx = 0

	Calibrate()
	irq.HandleIRQ(timerIRQLine, switchThread)

	early.Printf("[sched] scheduler initialized\n")
}

// Start unmasks the timer IRQ, enables interrupts, and runs the idle
// loop that reaps stopped threads and yields. It never returns.
func Start() {
	early.Printf("[sched] starting scheduler...\n")

	picClearMaskFn(timerIRQLine)
	enableInterruptsFn()

	for {
		reapStopped()
		Yield()
	}
}

func reapStopped() {
	cur := current()
	live := make([]*Thread, 0, len(threads))
	for _, t := range threads {
		if t.Status == StatusStopped {
			freeStackFn(t.StackBase)
			continue
		}
		live = append(live, t)
	}
	threads = live
	for i, t := range threads {
		if t == cur {
			currentIdx = i
			break
		}
	}
}

// CreateThread allocates a stack for entry and adds it to the ready
// list in the Waiting state. entry runs on its own stack the next time
// the scheduler picks it.
func CreateThread(entry func()) *kernel.Error {
	id := allocThreadID()

	stackBase, err := allocStackFn(id)
	if err != nil {
		return err
	}

	token := uint64(len(entryFns))
	entryFns = append(entryFns, entry)

	t := &Thread{
		ID:        id,
		Status:    StatusWaiting,
		StackBase: stackBase,
	}
	t.Regs.RDI = token
	t.Frame.RIP = uint64(threadEntryAddr())
	t.Frame.RFlags = 0x202
	t.Frame.CS = irq.KernelCodeSegment
	t.Frame.SS = irq.KernelDataSegment
	t.Frame.RSP = uint64(stackBase) + uint64(mem.PageSize)

	threads = append(threads, t)
	return nil
}

// Yield immediately re-enters the context-switch path, giving up the
// remainder of the current thread's time slice.
func Yield() {
	invokeInterrupt32Fn()
}

// SleepUntilNanos puts the calling thread to sleep until the TSC-derived
// clock reaches wakeAt nanoseconds, then yields.
func SleepUntilNanos(wakeAt uint64) {
	t := current()
	t.SleepUntil = wakeAt
	t.Status = StatusSleeping
	heap.Push(&sleeping, t)
	Yield()
}

// SleepForNanos puts the calling thread to sleep for roughly duration
// nanoseconds.
func SleepForNanos(duration uint64) {
	SleepUntilNanos(nowNanos() + duration)
}

// switchThread is the timer IRQ handler that implements the actual
// context switch. frame and regs point into the interrupt stack the
// dispatcher just built for the currently running thread; overwriting
// them in place is enough to change what the pending IRETQ resumes
// into, since commonStub pops registers from exactly these locations
// right before it executes.
func switchThread(frame *irq.Frame, regs *irq.Regs) {
	picEOIFn(timerIRQLine)

	wakeSleepers()

	cur := current()
	next := schedule()
	if next == cur {
		return
	}

	cur.Frame, cur.Regs = *frame, *regs
	if cur.Status == StatusRunning {
		cur.Status = StatusWaiting
	}

	*frame, *regs = next.Frame, next.Regs
	next.Status = StatusRunning
}

// wakeSleepers promotes every sleeper whose wake time has passed back
// to Waiting so schedule can pick it up.
func wakeSleepers() {
	now := nowNanos()
	for sleeping.Len() > 0 && sleeping[0].SleepUntil <= now {
		t := heap.Pop(&sleeping).(*Thread)
		if t.Status == StatusSleeping {
			t.Status = StatusWaiting
		}
	}
}

// schedule picks the next Waiting thread after the current one,
// wrapping around the ready list. If no other thread is runnable it
// returns the current thread unchanged.
func schedule() *Thread {
	start := currentIdx
	i := start
	for {
		i = (i + 1) % len(threads)
		if i == start {
			return threads[start]
		}
		if threads[i].Status == StatusWaiting {
			currentIdx = i
			return threads[i]
		}
	}
}

func defaultAllocStack(id uint64) (uintptr, *kernel.Error) {
	frame, kerr := pmm.FrameAllocator.Alloc()
	if kerr != nil {
		return 0, errNoStack
	}

	stackBase := stackRegionBase + uintptr(id)*2*uintptr(mem.PageSize)
	page := vmm.PageFromAddress(stackBase)
	if err := vmm.Map(page, frame, vmm.FlagRW, pmm.FrameAllocator.Alloc); err != nil {
		pmm.FrameAllocator.Free(frame)
		return 0, err
	}
	return stackBase, nil
}

func defaultFreeStack(stackBase uintptr) {
	if stackBase == 0 {
		return
	}
	phys, err := vmm.Translate(stackBase)
	if err != nil {
		return
	}
	_ = vmm.Unmap(vmm.PageFromAddress(stackBase))
	pmm.FrameAllocator.Free(pmm.Frame(phys.Frame()))
}
