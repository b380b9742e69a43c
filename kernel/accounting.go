package kernel

import "rtoskernel"

// cpuAccounting implements spec.md §3's ping-pong CPU-cycle bookkeeping:
// each task has two cycle counters, ClockA and ClockB; one accumulates the
// current accounting period while the other holds the just-completed
// period's total, frozen for PS to read. Every SysTick credits one
// cycle-unit to whichever task currently holds the CPU token; there is no
// wall-clock dependence, so tests that drive ticks by hand get exactly
// the counts they expect.
type cpuAccounting struct {
	periodTicks int  // ms elapsed since the last flip
	activeIsA   bool // true: ClockA is live, ClockB is the frozen read buffer
}

// tick advances the period counter and credits the running task, flipping
// buffers at a period boundary. idx is rtoskernel.InvalidIndex before the
// first task has ever run, in which case the period still advances but no
// task is credited — matching a hosted idle period with nothing scheduled
// yet.
func (a *cpuAccounting) tick(tasks *[rtoskernel.MaxTasks]Task, idx int) {
	if idx != rtoskernel.InvalidIndex && tasks[idx].State != rtoskernel.StateInvalid {
		if a.activeIsA {
			tasks[idx].ClockA++
		} else {
			tasks[idx].ClockB++
		}
	}
	a.periodTicks++
	if a.periodTicks >= rtoskernel.TaskCPUTimePeriodMS {
		a.periodTicks = 0
		a.activeIsA = !a.activeIsA
		for i := range tasks {
			if a.activeIsA {
				tasks[i].ClockA = 0
			} else {
				tasks[i].ClockB = 0
			}
		}
	}
}

// readCycles returns t's frozen, just-completed-period cycle count — the
// "cycles in the read buffer" spec.md op 20 reports against.
func (a *cpuAccounting) readCycles(t Task) uint32 {
	if a.activeIsA {
		return t.ClockB
	}
	return t.ClockA
}

// cpuPercent renders cycles out of a full accounting period as hundredths
// of a percent (spec.md op 20: "× 10000"), e.g. a task busy the whole
// period reports 10000.
func cpuPercent(cycles uint32) uint32 {
	return uint32(uint64(cycles) * 10000 / uint64(rtoskernel.TaskCPUTimePeriodMS))
}
