package kernel

import (
	"rtoskernel"
	"rtoskernel/mpu"
)

// EntryFunc is a task's entry point. env gives the task the only surface
// it has onto the kernel: every other package-level call a real task would
// make is, on real silicon, an SVC instruction trapped by the kernel; here
// it is a method on Env, which is itself just a thin wrapper that funnels
// the request through the kernel's single dispatch goroutine.
type EntryFunc func(env *Env)

// entryIdentity is the stand-in for "the entry-point address serves as
// identity" (spec.md §3): two Task slots may never carry Pids derived from
// the same EntryFunc value while both are non-INVALID.
func entryIdentity(fn EntryFunc) rtoskernel.Pid {
	return rtoskernel.Pid(funcPointer(fn))
}

// Task is one TCB slot (spec.md §3). Fields here map directly onto the
// spec's TCB; sp/sp_init/stack_size are modeled as a single StackBytes
// count plus a simulated "current stack pointer" is unnecessary since the
// task's state lives in its goroutine stack, not a byte array we manage —
// see SPEC_FULL.md §0.
type Task struct {
	State rtoskernel.TaskState
	Pid   rtoskernel.Pid
	Name  string

	StackBase  int // heap ledger base offset for this task's stack/heap block
	StackBytes int

	Priority        int
	CurrentPriority int

	Ticks int // remaining sleep ticks, valid only while StateDelayed

	Mask mpu.Mask

	MutexIx int // index into Kernel.mutexes, rtoskernel.InvalidIndex if none
	SemIx   int // index into Kernel.sems, rtoskernel.InvalidIndex if none

	ClockA, ClockB uint32 // ping-pong CPU-cycle accounting (spec.md §3)

	entry EntryFunc
	args  []uint32

	replyCh       chan svcResult
	pendingResult svcResult

	// awaitingDispatch is true exactly while this task's goroutine is
	// parked on replyCh — either inside Env.call or, for a freshly
	// created task, waiting for its very first dispatch. Only the
	// handler goroutine ever reads or writes it, so runPendSV can trust
	// it to decide whether a send on replyCh will be received rather
	// than leak a goroutine waiting forever on a channel nobody signals.
	// A READY task with this false is one whose goroutine is presently
	// running free between SVC calls; spec.md's instruction-level
	// preemption of that code isn't reproducible over a Go goroutine, so
	// a SysTick preemption in that case only rebinds current/mpu
	// bookkeeping without interrupting it (see SPEC_FULL.md §0).
	awaitingDispatch bool
}

func newEmptyTask() Task {
	return Task{
		State:           rtoskernel.StateInvalid,
		MutexIx:         rtoskernel.InvalidIndex,
		SemIx:           rtoskernel.InvalidIndex,
		Mask:            mpu.DenyAllMask(),
		CurrentPriority: rtoskernel.NumPriorities - 1,
	}
}
