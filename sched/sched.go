// Package sched implements the kernel's task picker (spec.md §4.2): strict
// priority with per-priority round robin, or flat round robin. It is a
// pure function of a caller-supplied task snapshot plus its own rotation
// state — it never blocks and has no side effects beyond updating that
// rotation state, exactly as spec.md requires.
package sched

import (
	"container/ring"

	"rtoskernel"
)

// TaskView is the read-only slice of TCB state the scheduler needs. The
// kernel package builds one of these per task on every scheduling
// decision; sched never sees a full Task.
type TaskView struct {
	Index           int
	State           rtoskernel.TaskState
	CurrentPriority int
}

func (v TaskView) ready() bool { return v.State == rtoskernel.StateReady }

// Scheduler holds the rotation state described in spec.md §4.2: one
// last-dispatched index per priority level for Priority mode, and a
// single cursor — backed by a container/ring so "advance, skipping
// non-ready slots" is a direct ring traversal — for RoundRobin mode.
type Scheduler struct {
	mode rtoskernel.SchedMode

	lastDispatched [rtoskernel.NumPriorities]int // task index, -1 if never dispatched
	rrRing         *ring.Ring                    // populated lazily to match the task count
	rrSize         int
}

// NewScheduler returns a Scheduler in priority mode with empty rotation
// state.
func NewScheduler() *Scheduler {
	s := &Scheduler{mode: rtoskernel.SchedPriority}
	for i := range s.lastDispatched {
		s.lastDispatched[i] = -1
	}
	return s
}

// SetMode switches between priority and round-robin dispatch (spec.md
// §4.4 op 12, SCHED).
func (s *Scheduler) SetMode(m rtoskernel.SchedMode) {
	s.mode = m
}

// Mode reports the current dispatch policy.
func (s *Scheduler) Mode() rtoskernel.SchedMode { return s.mode }

// Pick selects the next task to run from tasks, which must be indexed by
// TaskView.Index == its position in the slice (the kernel always passes
// the full, fixed-size TCB snapshot so index arithmetic is stable across
// calls). ok is false only if no task is READY; the kernel then leaves no
// task holding the CPU until one becomes READY again (see runPendSV).
func (s *Scheduler) Pick(tasks []TaskView) (index int, ok bool) {
	if s.mode == rtoskernel.SchedRoundRobin {
		return s.pickRoundRobin(tasks)
	}
	return s.pickPriority(tasks)
}

func (s *Scheduler) pickPriority(tasks []TaskView) (int, bool) {
	n := len(tasks)
	if n == 0 {
		return 0, false
	}

	minPrio := -1
	for _, t := range tasks {
		if !t.ready() {
			continue
		}
		if minPrio == -1 || t.CurrentPriority < minPrio {
			minPrio = t.CurrentPriority
		}
	}
	if minPrio == -1 {
		return 0, false
	}

	start := s.lastDispatched[minPrio]
	for offset := 1; offset <= n; offset++ {
		idx := (start + offset) % n
		t := tasks[idx]
		if t.ready() && t.CurrentPriority == minPrio {
			s.lastDispatched[minPrio] = idx
			return idx, true
		}
	}
	// Unreachable: minPrio was computed from a READY task above.
	return 0, false
}

func (s *Scheduler) pickRoundRobin(tasks []TaskView) (int, bool) {
	n := len(tasks)
	if n == 0 {
		return 0, false
	}
	if s.rrRing == nil || s.rrSize != n {
		s.rrRing = ring.New(n)
		r := s.rrRing
		for i := 0; i < n; i++ {
			r.Value = i
			r = r.Next()
		}
		s.rrSize = n
	}

	r := s.rrRing.Next()
	for i := 0; i < n; i++ {
		idx := r.Value.(int)
		if tasks[idx].ready() {
			s.rrRing = r
			return idx, true
		}
		r = r.Next()
	}
	return 0, false
}
