package kernel

import "rtoskernel"

// handleSysTick processes one 1ms periodic tick (spec.md component C7):
// it credits CPU accounting, decrements every DELAYED task's sleep
// counter, wakes any task whose counter has run out, and — if preemption
// is enabled — requests a context switch exactly as a real SysTick
// handler pending a PendSV would.
//
// Wakeup timing matches spec.md §4.3 literally: "for each DELAYED task,
// decrement ticks; on reaching zero transition to READY." A task armed
// with ticks=N is decremented on N consecutive SysTicks and is woken on
// the Nth one, the same tick the counter reaches 0.
func (k *Kernel) handleSysTick() {
	k.acct.tick(&k.tasks, k.current)

	woke := false
	for i := range k.tasks {
		t := &k.tasks[i]
		if t.State != rtoskernel.StateDelayed {
			continue
		}
		t.Ticks--
		if t.Ticks <= 0 {
			t.State = rtoskernel.StateReady
			woke = true
		}
	}

	if woke || k.preemptEnabled {
		k.runPendSV()
	}
}
