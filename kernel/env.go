package kernel

import "rtoskernel"

// Env methods are a task's only way to reach the kernel — the hosted
// stand-in for issuing an SVC instruction. Every method here funnels
// through call, spec.md §6's "supervisor-call protocol" with stacked
// R0/R1 arguments and a stacked-R0 result replaced by a request/response
// struct.

// Yield implements op 1, YIELD.
func (e *Env) Yield() {
	e.call(opYield, 0, 0, "")
}

// Sleep implements op 2, SLEEP.
func (e *Env) Sleep(ticks uint32) {
	e.call(opSleep, ticks, 0, "")
}

// Lock implements op 3, LOCK. ok is false on queue overflow (spec.md §7),
// on an out-of-range mutex index, and when the caller already references
// a mutex — in each case the caller does not hold the requested mutex.
func (e *Env) Lock(mutexIx int) (ok bool) {
	return e.call(opLock, uint32(mutexIx), 0, "").Value != 0
}

// Unlock implements op 4, UNLOCK. Calling it while not the owner kills
// the caller outright (spec.md §7) — the call below never returns in
// that case, since the kernel abandons the task instead of replying.
func (e *Env) Unlock(mutexIx int) {
	e.call(opUnlock, uint32(mutexIx), 0, "")
}

// Wait implements op 5, WAIT. ok is false on queue overflow and on an
// out-of-range semaphore index.
func (e *Env) Wait(semIx int) (ok bool) {
	return e.call(opWait, uint32(semIx), 0, "").Value != 0
}

// Post implements op 6, POST.
func (e *Env) Post(semIx int) {
	e.call(opPost, uint32(semIx), 0, "")
}

// Malloc implements op 7, MALLOC. It returns a null address (0) on
// failure (spec.md §7).
func (e *Env) Malloc(size int) (addr uint32) {
	return e.call(opMalloc, uint32(size), 0, "").Value
}

// Ipcs implements op 8, IPCS.
func (e *Env) Ipcs() string {
	return e.call(opIpcs, 0, 0, "").Text
}

// Kill implements op 9, KILL. ok is false if pid does not name a live
// task.
func (e *Env) Kill(pid rtoskernel.Pid) (ok bool) {
	return e.call(opKill, uint32(pid), 0, "").Value != 0
}

// PKill implements op 10, PKILL.
func (e *Env) PKill(name string) (ok bool) {
	return e.call(opPKill, 0, 0, name).Value != 0
}

// PidOf implements op 11, PIDOF. A zero Pid means no task by that name.
func (e *Env) PidOf(name string) rtoskernel.Pid {
	return e.call(opPidOf, 0, 0, name).Pid
}

// Sched implements op 12, SCHED.
func (e *Env) Sched(mode rtoskernel.SchedMode) {
	e.call(opSched, uint32(mode), 0, "")
}

// Preempt implements op 13, PREEMPT.
func (e *Env) Preempt(on bool) {
	e.call(opPreempt, boolArg(on), 0, "")
}

// PI implements op 14, PI.
func (e *Env) PI(on bool) {
	e.call(opPI, boolArg(on), 0, "")
}

// MemInfo implements op 15, MEMINFO.
func (e *Env) MemInfo() string {
	return e.call(opMemInfo, 0, 0, "").Text
}

// Reboot implements op 16, REBOOT. Like its hardware counterpart, it does
// not return: the kernel abandons the calling task instead of replying.
func (e *Env) Reboot() {
	e.call(opReboot, 0, 0, "")
}

// Restart implements op 17, RESTART.
func (e *Env) Restart(pid rtoskernel.Pid) (ok bool) {
	return e.call(opRestart, uint32(pid), 0, "").Value != 0
}

// NameR implements op 18, NAME_R.
func (e *Env) NameR(name string) (ok bool) {
	return e.call(opNameR, 0, 0, name).Value != 0
}

// SetPri implements op 19, SET_PRI.
func (e *Env) SetPri(pid rtoskernel.Pid, priority int) (ok bool) {
	return e.call(opSetPri, uint32(pid), uint32(priority), "").Value != 0
}

// Ps implements op 20, PS.
func (e *Env) Ps() string {
	return e.call(opPS, 0, 0, "").Text
}

func boolArg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
