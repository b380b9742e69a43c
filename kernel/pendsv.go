package kernel

import "rtoskernel"

// runPendSV is the sole context-switch point (spec.md §4.3, component
// C5): it asks the scheduler for the next READY task, applies that task's
// MPU window, and releases it onto the CPU by sending its pending result
// on its reply channel. Every other kernel method that needs to give up
// the CPU — a blocking SVC, a SysTick preemption — ends by calling this.
func (k *Kernel) runPendSV() {
	idx, ok := k.sched.Pick(k.taskViews())
	if !ok {
		// Nothing READY: the hosted analogue of entering sleep-on-exit
		// with no pending exception. The handler loop keeps servicing
		// ticks and SVCs; no task holds the token until one becomes
		// READY again.
		k.current = rtoskernel.InvalidIndex
		return
	}
	k.current = idx
	k.driver.Apply(k.tasks[idx].Mask.RegionBytes())
	if !k.tasks[idx].awaitingDispatch {
		// Already the running task (or, in principle, free-running
		// between SVC calls): nothing to signal, just rebind
		// bookkeeping. See the awaitingDispatch doc in task.go.
		return
	}
	k.log.Infof("pendsv: dispatch pid=%#x name=%s prio=%d", k.tasks[idx].Pid, k.tasks[idx].Name, k.tasks[idx].CurrentPriority)
	k.tasks[idx].awaitingDispatch = false
	k.tasks[idx].replyCh <- k.tasks[idx].pendingResult
	if k.metrics != nil {
		k.metrics.ContextSwitches.Add(1)
	}
}
