package sched

// threadEntryAddr returns the address threadEntry (entry_amd64.s) is
// loaded at, so CreateThread can point a new thread's saved
// Frame.RIP directly at it.
func threadEntryAddr() uintptr

// entryFns holds the closures passed to CreateThread, indexed by the
// token stashed in a new thread's Regs.RDI. threadEntry hands the
// token to runThread in the SysV-ish raw calling convention the CPU
// leaves it in after restoring registers and returning from the timer
// interrupt; runThread looks the real closure up here since a Go func
// value is not a bare code pointer threadEntry could jump to directly.
var entryFns []func()

// runThread is reached by entry_amd64.s the first time a newly created
// thread is scheduled. It runs the thread's entry point to completion
// and then marks the thread stopped, so it never appears as Running
// again once Start reaps it.
func runThread(token uint64) {
	fn := entryFns[token]
	entryFns[token] = nil
	fn()

	cur := current()
	cur.Status = StatusStopped
	for {
		Yield()
	}
}
