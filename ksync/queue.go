// Package ksync implements the kernel's blocking primitives: mutexes and
// counting semaphores, each with a bounded FIFO wait queue of task indices
// (spec.md §3, §4.4 ops 3-6). Priority inheritance is not handled here; the
// kernel package's svcLock applies it using Mutex.LockedBy.
//
// Unlike the standard library's sync package, these are not goroutine-level
// locks — a ksync.Mutex never blocks the calling goroutine. It is a pure
// state machine: Lock/Unlock/Wait/Post report what happened (acquired,
// queued, who to wake) and the kernel package's SVC dispatch decides what
// that means for the calling task's TaskState. This mirrors spec.md §4.3's
// requirement that kernel tables are mutated only in handler mode — ksync
// has no handler-mode notion of its own, it just gets called from one.
package ksync

import "container/list"

// taskQueue is a bounded FIFO of task indices, used by both Mutex and
// Semaphore for their wait lists. It is built on the standard library's
// doubly-linked list the way the teacher's container/list package is built
// — a sentinel root element — with a capacity check push enforces.
type taskQueue struct {
	l   *list.List
	max int
}

func newTaskQueue(max int) *taskQueue {
	return &taskQueue{l: list.New(), max: max}
}

// push enqueues taskIdx at the tail. It reports false, without enqueuing,
// if the queue is already at capacity (spec.md §7, "Queue overflow").
func (q *taskQueue) push(taskIdx int) bool {
	if q.l.Len() >= q.max {
		return false
	}
	q.l.PushBack(taskIdx)
	return true
}

// pop removes and returns the head of the queue.
func (q *taskQueue) pop() (int, bool) {
	e := q.l.Front()
	if e == nil {
		return 0, false
	}
	q.l.Remove(e)
	return e.Value.(int), true
}

// remove deletes the first occurrence of taskIdx from the queue, used when
// a task is killed while queued (spec.md §4.4 op 9). It reports whether an
// entry was removed.
func (q *taskQueue) remove(taskIdx int) bool {
	for e := q.l.Front(); e != nil; e = e.Next() {
		if e.Value.(int) == taskIdx {
			q.l.Remove(e)
			return true
		}
	}
	return false
}

func (q *taskQueue) len() int { return q.l.Len() }

// snapshot returns the queued task indices, head first, without mutating
// the queue — used to render IPCS output.
func (q *taskQueue) snapshot() []int {
	out := make([]int, 0, q.l.Len())
	for e := q.l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(int))
	}
	return out
}
