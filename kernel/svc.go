package kernel

import (
	"rtoskernel"
	"rtoskernel/mpu"
)

// opKind is the SVC immediate — the op number encoded in the low byte of
// the supervisor-call instruction (spec.md §4.4, §6).
type opKind uint8

const (
	opStart opKind = iota
	opYield
	opSleep
	opLock
	opUnlock
	opWait
	opPost
	opMalloc
	opIpcs
	opKill
	opPKill
	opPidOf
	opSched
	opPreempt
	opPI
	opMemInfo
	opReboot
	opRestart
	opNameR
	opSetPri
	opPS
)

// svcRequest is the hosted stand-in for the stacked R0/R1 argument
// registers an SVC instruction passes to the handler. a0/a1 carry the
// numeric arguments (ticks, mutex/sem index, size, pid, priority); name
// carries the string argument for the by-name variants (PKILL, NAME_R,
// PIDOF).
type svcRequest struct {
	taskIdx int
	op      opKind
	a0, a1  uint32
	name    string
}

// svcResult is the hosted stand-in for "results are written back by
// overwriting the stacked R0": Value carries a numeric result (a heap
// address, a boolean as 0/1), Pid carries a PIDOF/PIDOF-like result, and
// Text carries a rendered console report (IPCS/MEMINFO/PS).
type svcResult struct {
	Value uint32
	Pid   rtoskernel.Pid
	Text  string
}

// reply delivers res to the task that is the calling convention's
// implicit recipient — the task currently parked in Env.call waiting on
// its own replyCh — without going through the scheduler. Used for every
// SVC op that doesn't block (spec.md §4.4's "contract for every op":
// non-blocking ops simply return to the same caller).
func (k *Kernel) reply(taskIdx int, res svcResult) {
	t := &k.tasks[taskIdx]
	t.awaitingDispatch = false
	t.replyCh <- res
}

// dispatch is the SVC handler (component C6): it decodes req.op and
// performs the table in spec.md §4.4. It is called only from Kernel.run,
// the sole handler-mode goroutine, so every kernel table it touches needs
// no locking of its own.
func (k *Kernel) dispatch(req svcRequest) {
	if req.op == opStart {
		// The one-time boot SVC carries no calling task: taskIdx is
		// rtoskernel.InvalidIndex since nothing is running yet.
		k.runPendSV()
		return
	}

	t := &k.tasks[req.taskIdx]
	t.awaitingDispatch = true

	switch req.op {
	case opYield:
		k.runPendSV()

	case opSleep:
		t.Ticks = int(req.a0)
		t.State = rtoskernel.StateDelayed
		k.runPendSV()

	case opLock:
		k.svcLock(req.taskIdx, int(req.a0))

	case opUnlock:
		k.svcUnlock(req.taskIdx, int(req.a0))

	case opWait:
		k.svcWait(req.taskIdx, int(req.a0))

	case opPost:
		k.svcPost(req.taskIdx, int(req.a0))

	case opMalloc:
		k.svcMalloc(req.taskIdx, int(req.a0))

	case opIpcs:
		k.reply(req.taskIdx, svcResult{Text: k.renderIPCS()})

	case opKill:
		k.svcKill(req.taskIdx, rtoskernel.Pid(req.a0))

	case opPKill:
		k.svcKillByName(req.taskIdx, req.name)

	case opPidOf:
		k.svcPidOf(req.taskIdx, req.name)

	case opSched:
		k.sched.SetMode(rtoskernel.SchedMode(req.a0))
		k.reply(req.taskIdx, svcResult{})

	case opPreempt:
		k.preemptEnabled = req.a0 != 0
		k.reply(req.taskIdx, svcResult{})

	case opPI:
		k.piEnabled = req.a0 != 0
		k.reply(req.taskIdx, svcResult{})

	case opMemInfo:
		k.reply(req.taskIdx, svcResult{Text: k.renderMemInfo()})

	case opReboot:
		k.svcReboot(req.taskIdx)

	case opRestart:
		k.svcRestart(req.taskIdx, rtoskernel.Pid(req.a0))

	case opNameR:
		k.svcRestartByName(req.taskIdx, req.name)

	case opSetPri:
		k.svcSetPri(req.taskIdx, rtoskernel.Pid(req.a0), int(req.a1))

	case opPS:
		k.reply(req.taskIdx, svcResult{Text: k.renderPS()})
	}
}

// validMutexIx reports whether ix names a real mutex table slot. An
// out-of-range index — R0 widened from a negative int, or simply >=
// MaxMutexes — must leave the table untouched (spec.md §7, "Bad primitive
// index: SVC returns without effect"), matching
// original_source/rtos_project/kernel.c's `if (r0 >= MAX_MUTEXES)` guard.
func validMutexIx(ix int) bool {
	return ix >= 0 && ix < rtoskernel.MaxMutexes
}

// validSemIx is validMutexIx's semaphore-table counterpart.
func validSemIx(ix int) bool {
	return ix >= 0 && ix < rtoskernel.MaxSemaphores
}

// svcLock implements op 3, LOCK. Per SPEC_FULL.md §12.4, a task already
// holding a mutex is rejected the same way a bad primitive index is
// (single-mutex-at-a-time, sidestepping nested-priority-inheritance
// ambiguity): the call returns without effect and the caller is not
// enqueued.
func (k *Kernel) svcLock(taskIdx, mutexIx int) {
	if !validMutexIx(mutexIx) {
		k.reply(taskIdx, svcResult{Value: 0})
		return
	}
	m := k.mutexes[mutexIx]
	t := &k.tasks[taskIdx]
	if t.MutexIx != rtoskernel.InvalidIndex {
		k.reply(taskIdx, svcResult{Value: 0})
		return
	}
	if acquired, queued := m.Lock(taskIdx); acquired {
		t.MutexIx = mutexIx
		k.reply(taskIdx, svcResult{Value: 1})
		return
	} else if queued {
		t.State = rtoskernel.StateBlockedMutex
		t.MutexIx = mutexIx
		t.pendingResult = svcResult{Value: 1}
		if k.piEnabled {
			holder := &k.tasks[m.LockedBy]
			if t.CurrentPriority < holder.CurrentPriority {
				holder.CurrentPriority = t.CurrentPriority
			}
		}
		k.runPendSV()
		return
	}
	// Queue overflow (spec.md §7): caller is not enqueued but still
	// gives up the CPU so it doesn't busy-spin on a mutex it can't have.
	t.pendingResult = svcResult{Value: 0}
	k.runPendSV()
}

// svcUnlock implements op 4, UNLOCK.
func (k *Kernel) svcUnlock(taskIdx, mutexIx int) {
	if !validMutexIx(mutexIx) {
		k.reply(taskIdx, svcResult{Value: 0})
		return
	}
	m := k.mutexes[mutexIx]
	t := &k.tasks[taskIdx]
	ok, handoff, hasHandoff := m.Unlock(taskIdx)
	if !ok {
		k.killTask(taskIdx, "protocol violation: UNLOCK by non-owner")
		k.runPendSV()
		return
	}
	t.CurrentPriority = t.Priority
	t.MutexIx = rtoskernel.InvalidIndex
	if hasHandoff {
		h := &k.tasks[handoff]
		h.State = rtoskernel.StateReady
		h.MutexIx = mutexIx
		h.pendingResult = svcResult{Value: 1}
	}
	k.reply(taskIdx, svcResult{})
}

// svcWait implements op 5, WAIT.
func (k *Kernel) svcWait(taskIdx, semIx int) {
	if !validSemIx(semIx) {
		k.reply(taskIdx, svcResult{Value: 0})
		return
	}
	s := k.sems[semIx]
	t := &k.tasks[taskIdx]
	if acquired, queued := s.Wait(taskIdx); acquired {
		k.reply(taskIdx, svcResult{Value: 1})
		return
	} else if queued {
		t.State = rtoskernel.StateBlockedSemaphore
		t.SemIx = semIx
		t.pendingResult = svcResult{Value: 1}
		k.runPendSV()
		return
	}
	t.pendingResult = svcResult{Value: 0}
	k.runPendSV()
}

// svcPost implements op 6, POST.
func (k *Kernel) svcPost(taskIdx, semIx int) {
	if !validSemIx(semIx) {
		k.reply(taskIdx, svcResult{Value: 0})
		return
	}
	s := k.sems[semIx]
	if woken, wokeSomeone := s.Post(); wokeSomeone {
		w := &k.tasks[woken]
		w.State = rtoskernel.StateReady
		w.SemIx = rtoskernel.InvalidIndex
		w.pendingResult = svcResult{Value: 1}
	}
	k.reply(taskIdx, svcResult{})
}

// svcMalloc implements op 7, MALLOC.
func (k *Kernel) svcMalloc(taskIdx, size int) {
	t := &k.tasks[taskIdx]
	base, ok := k.heap.Alloc(size, t.Pid)
	if !ok {
		k.reply(taskIdx, svcResult{Value: 0})
		return
	}
	t.Mask = k.heap.AddWindow(t.Mask, base)
	k.reply(taskIdx, svcResult{Value: uint32(mpu.HeapBase + base)})
}
