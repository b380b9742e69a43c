package kernel

import (
	"context"
	"strings"

	"rtoskernel"
	"rtoskernel/ksync"
	"rtoskernel/mpu"
)

// CreateTask implements task creation (spec.md §4.5): it rejects if no
// TCB slot is free or if fn is already registered, otherwise allocates a
// stack block, copies the name, sets priorities, builds an SRD mask that
// exposes only that block, and marks the task READY. Unlike every SVC op
// in §4.4, create_thread is not part of the service table — on real
// silicon it runs as ordinary boot code before the first SVC #0 START, so
// here it must be called before Start, synchronously, with no other
// goroutine touching kernel tables yet.
func (k *Kernel) CreateTask(fn EntryFunc, name string, priority int, stackBytes int) (rtoskernel.Pid, bool) {
	pid := entryIdentity(fn)
	for i := range k.tasks {
		if k.tasks[i].State != rtoskernel.StateInvalid && k.tasks[i].entry != nil && entryIdentity(k.tasks[i].entry) == pid {
			return 0, false
		}
	}
	idx := k.findFreeSlot()
	if idx < 0 {
		return 0, false
	}
	base, ok := k.heap.Alloc(stackBytes, pid)
	if !ok {
		return 0, false
	}
	mask := k.heap.AddWindow(mpu.DenyAllMask(), base)
	k.tasks[idx] = Task{
		State:            rtoskernel.StateReady,
		Pid:              pid,
		Name:             truncateName(name),
		StackBase:        base,
		StackBytes:       stackBytes,
		Priority:         priority,
		CurrentPriority:  priority,
		MutexIx:          rtoskernel.InvalidIndex,
		SemIx:            rtoskernel.InvalidIndex,
		Mask:             mask,
		entry:            fn,
		replyCh:          make(chan svcResult),
		awaitingDispatch: true,
	}
	k.spawn(idx)
	return pid, true
}

// spawn starts idx's task goroutine. It parks on replyCh immediately —
// the hosted analogue of "on the first dispatch the restore path pops
// [the synthesized] frame as if the task had previously been
// interrupted" — fn only begins executing once runPendSV actually picks
// this slot.
func (k *Kernel) spawn(idx int) {
	t := &k.tasks[idx]
	env := &Env{k: k, idx: idx}
	fn := t.entry
	replyCh := t.replyCh
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		<-replyCh
		if err := k.cpu.Acquire(context.Background(), 1); err != nil {
			return
		}
		fn(env)
	}()
}

// Start launches the handler goroutine, runs boot (the embedder's task
// creation sequence) synchronously before anything else can touch kernel
// state, remembers boot for a future REBOOT, and issues the one-time SVC
// #0 START that picks the first task.
func (k *Kernel) Start(boot func(*Kernel)) {
	k.boot = boot
	go k.run()
	boot(k)
	k.reqCh <- svcRequest{op: opStart, taskIdx: rtoskernel.InvalidIndex}
}

// Tick delivers one SysTick period to the handler goroutine (component
// C7). Callers typically drive this from a hal.SysTick ticker, or by hand
// in tests.
func (k *Kernel) Tick() {
	k.tickCh <- struct{}{}
}

// Stop halts the handler goroutine. Task goroutines that are still
// parked on a replyCh are left abandoned, matching spec.md §5's "no
// graceful shutdown."
func (k *Kernel) Stop() {
	k.halt("Stop requested")
}

func (k *Kernel) findFreeSlot() int {
	for i := range k.tasks {
		if k.tasks[i].State == rtoskernel.StateInvalid {
			return i
		}
	}
	return rtoskernel.InvalidIndex
}

func (k *Kernel) findByPid(pid rtoskernel.Pid) int {
	for i := range k.tasks {
		if k.tasks[i].State != rtoskernel.StateInvalid && k.tasks[i].Pid == pid {
			return i
		}
	}
	return rtoskernel.InvalidIndex
}

func (k *Kernel) findByName(name string) int {
	for i := range k.tasks {
		if k.tasks[i].State != rtoskernel.StateInvalid && strings.EqualFold(k.tasks[i].Name, truncateName(name)) {
			return i
		}
	}
	return rtoskernel.InvalidIndex
}

func truncateName(name string) string {
	if len(name) >= rtoskernel.NameSize {
		return name[:rtoskernel.NameSize-1]
	}
	return name
}

// killTask implements the shared mechanics of op 9 KILL and a protocol
// violation's "killer of self": stop the task, free its stack block and
// every heap allocation it owns, drop it from any mutex/semaphore queue,
// and hand off any mutex it held to the next waiter.
func (k *Kernel) killTask(idx int, reason string) {
	t := &k.tasks[idx]
	if t.State == rtoskernel.StateInvalid || t.State == rtoskernel.StateStopped {
		return
	}
	k.log.Warnf("kill pid=%#x name=%s: %s", t.Pid, t.Name, reason)

	for i, m := range k.mutexes {
		m.Remove(idx)
		if released, handoff, hasHandoff := m.ReleaseHeldBy(idx); released && hasHandoff {
			h := &k.tasks[handoff]
			h.State = rtoskernel.StateReady
			h.MutexIx = i
			h.pendingResult = svcResult{Value: 1}
		}
	}
	for _, s := range k.sems {
		s.Remove(idx)
	}

	k.heap.FreeAllOwnedBy(t.Pid)
	t.State = rtoskernel.StateStopped
	t.MutexIx = rtoskernel.InvalidIndex
	t.SemIx = rtoskernel.InvalidIndex
	t.Mask = mpu.DenyAllMask()
	if k.current == idx {
		k.current = rtoskernel.InvalidIndex
	}
}

// svcKill implements op 9, KILL.
func (k *Kernel) svcKill(callerIdx int, pid rtoskernel.Pid) {
	targetIdx := k.findByPid(pid)
	if targetIdx < 0 {
		k.reply(callerIdx, svcResult{Value: 0})
		return
	}
	k.killTask(targetIdx, "killed via KILL")
	if targetIdx == callerIdx {
		k.runPendSV()
		return
	}
	k.reply(callerIdx, svcResult{Value: 1})
}

// svcKillByName implements op 10, PKILL.
func (k *Kernel) svcKillByName(callerIdx int, name string) {
	targetIdx := k.findByName(name)
	if targetIdx < 0 {
		k.reply(callerIdx, svcResult{Value: 0})
		return
	}
	k.killTask(targetIdx, "killed via PKILL")
	if targetIdx == callerIdx {
		k.runPendSV()
		return
	}
	k.reply(callerIdx, svcResult{Value: 1})
}

// svcPidOf implements op 11, PIDOF. A Pid of 0 reports "no such task"
// (spec.md §7: "a null pid from PIDOF").
func (k *Kernel) svcPidOf(callerIdx int, name string) {
	idx := k.findByName(name)
	if idx < 0 {
		k.reply(callerIdx, svcResult{Pid: 0})
		return
	}
	k.reply(callerIdx, svcResult{Pid: k.tasks[idx].Pid})
}

// svcSetPri implements op 19, SET_PRI: it updates both priority and
// current_priority, clearing any inherited boost the same way a fresh
// base priority assignment would. A priority outside [0, NumPriorities)
// is a bad primitive argument (spec.md §7) and is rejected without effect,
// the same as a bad mutex/semaphore index — left unchecked it would later
// panic sched.pickPriority's lastDispatched[minPrio] indexing.
func (k *Kernel) svcSetPri(callerIdx int, pid rtoskernel.Pid, priority int) {
	if priority < 0 || priority >= rtoskernel.NumPriorities {
		k.reply(callerIdx, svcResult{Value: 0})
		return
	}
	idx := k.findByPid(pid)
	if idx < 0 {
		k.reply(callerIdx, svcResult{Value: 0})
		return
	}
	k.tasks[idx].Priority = priority
	k.tasks[idx].CurrentPriority = priority
	k.reply(callerIdx, svcResult{Value: 1})
}

// restartSlot re-allocates a stack block for a STOPPED task and marks it
// READY again, the shared mechanics of RESTART and NAME_R.
func (k *Kernel) restartSlot(idx int) bool {
	t := &k.tasks[idx]
	if t.State != rtoskernel.StateStopped {
		return false
	}
	base, ok := k.heap.Alloc(t.StackBytes, t.Pid)
	if !ok {
		return false
	}
	t.StackBase = base
	t.Mask = k.heap.AddWindow(mpu.DenyAllMask(), base)
	t.CurrentPriority = t.Priority
	t.MutexIx = rtoskernel.InvalidIndex
	t.SemIx = rtoskernel.InvalidIndex
	t.State = rtoskernel.StateReady
	t.replyCh = make(chan svcResult)
	t.awaitingDispatch = true
	k.spawn(idx)
	return true
}

// svcRestart implements op 17, RESTART.
func (k *Kernel) svcRestart(callerIdx int, pid rtoskernel.Pid) {
	idx := k.findByPid(pid)
	if idx < 0 || !k.restartSlot(idx) {
		k.reply(callerIdx, svcResult{Value: 0})
		return
	}
	k.reply(callerIdx, svcResult{Value: 1})
}

// svcRestartByName implements op 18, NAME_R.
func (k *Kernel) svcRestartByName(callerIdx int, name string) {
	idx := k.findByName(name)
	if idx < 0 || !k.restartSlot(idx) {
		k.reply(callerIdx, svcResult{Value: 0})
		return
	}
	k.reply(callerIdx, svcResult{Value: 1})
}

// svcReboot implements op 16, REBOOT: every kernel table returns to its
// power-on-reset default and the embedder's boot sequence runs again, the
// same way a real NVIC_APINT_R write leads straight back to the reset
// vector. The caller is never replied to — a reboot, like its hardware
// counterpart, does not return.
func (k *Kernel) svcReboot(callerIdx int) {
	k.log.Warnf("reboot requested by pid=%#x", k.tasks[callerIdx].Pid)
	if k.metrics != nil {
		k.metrics.Reboots.Add(1)
	}
	for i := range k.tasks {
		k.tasks[i] = newEmptyTask()
	}
	k.heap = mpu.NewHeap()
	for i := range k.mutexes {
		k.mutexes[i] = ksync.NewMutex()
	}
	for i := range k.sems {
		k.sems[i] = ksync.NewSemaphore(0)
	}
	k.sched.SetMode(rtoskernel.SchedPriority)
	k.acct = cpuAccounting{}
	k.preemptEnabled = false
	k.piEnabled = false
	k.current = rtoskernel.InvalidIndex
	if k.boot != nil {
		k.boot(k)
	}
	k.runPendSV()
}
