package sched

import "kernelcore/kernel/cpu"

// PIT (8253/8254) ports and the one-shot calibration window used to
// turn TSC ticks into nanoseconds. Channel 2 is used instead of
// channel 0 because it is gated through port 0x61 rather than wired to
// an IRQ line, so calibration can busy-poll it without touching the
// IDT.
const (
	pitCommandPort  = 0x43
	pitChannel2Port = 0x42
	ppiPort         = 0x61

	pitFrequencyHz      = 1193182
	calibrationWindowMs = 10
	pitChannel2OneShot  = 0xB0 // channel 2, lobyte/hibyte, mode 0, binary
)

var (
	in8Fn   = cpu.InPort8
	out8Fn  = cpu.OutPort8
	rdtscFn = cpu.Rdtsc
)

// tscTicksPerMs is the measured (or, before Calibrate runs, guessed)
// number of TSC ticks per millisecond. The guess assumes a 3.6GHz
// clock; it exists so nowNanos produces a plausible ordering even if
// Calibrate is skipped, not because it's an accurate clock.
var tscTicksPerMs uint64 = 3_600_000

// Calibrate measures the TSC's frequency against the PIT's known
// 1.193182MHz clock by timing a 10ms one-shot countdown on PIT channel
// 2, polling its gate status through the PPI rather than taking an
// IRQ. Must run with interrupts disabled, before Start unmasks the
// timer.
func Calibrate() {
	reload := uint16(pitFrequencyHz * calibrationWindowMs / 1000)

	out8Fn(pitCommandPort, pitChannel2OneShot)
	out8Fn(pitChannel2Port, uint8(reload))
	out8Fn(pitChannel2Port, uint8(reload>>8))

	gate := in8Fn(ppiPort)
	gate = (gate &^ 0x02) | 0x01 // enable the counting gate, mute the speaker
	out8Fn(ppiPort, gate)

	start := rdtscFn()
	for in8Fn(ppiPort)&0x20 == 0 {
	}
	end := rdtscFn()

	tscTicksPerMs = (end - start) / calibrationWindowMs
}

// nowNanos returns a monotonically increasing nanosecond timestamp
// derived from the TSC, scaled by the factor Calibrate measured.
func nowNanos() uint64 {
	if tscTicksPerMs == 0 {
		return 0
	}
	return rdtscFn() * 1_000_000 / tscTicksPerMs
}
