package ksync

import "rtoskernel"

// Mutex is one entry of the MAX_MUTEXES table (spec.md §3). LockedBy is
// rtoskernel.InvalidIndex when the mutex is free.
type Mutex struct {
	Locked   bool
	LockedBy int
	queue    *taskQueue
}

// NewMutex returns a free mutex with an empty wait queue.
func NewMutex() *Mutex {
	return &Mutex{LockedBy: rtoskernel.InvalidIndex, queue: newTaskQueue(rtoskernel.MaxMutexQueueSize)}
}

// Lock attempts to acquire m for taskIdx (spec.md §4.4 op 3, LOCK).
//
//   - If the mutex is free, it is acquired immediately: acquired is true.
//   - If it is held, taskIdx is enqueued and queued is true; the caller
//     transitions to BLOCKED_MUTEX.
//   - If it is held and the queue is already full, neither acquired nor
//     queued is true — the caller returns without blocking (spec.md §7).
func (m *Mutex) Lock(taskIdx int) (acquired, queued bool) {
	if !m.Locked {
		m.Locked = true
		m.LockedBy = taskIdx
		return true, false
	}
	return false, m.queue.push(taskIdx)
}

// Unlock releases m on behalf of taskIdx (spec.md §4.4 op 4, UNLOCK).
// ok is false if taskIdx does not hold the mutex — a protocol violation
// the SVC layer handles by killing the caller. When ok is true and the
// wait queue is non-empty, handoff is the task index ownership passes to
// and hasHandoff is true; the mutex stays locked, now by handoff.
func (m *Mutex) Unlock(taskIdx int) (ok bool, handoff int, hasHandoff bool) {
	if !m.Locked || m.LockedBy != taskIdx {
		return false, 0, false
	}
	if next, has := m.queue.pop(); has {
		m.LockedBy = next
		return true, next, true
	}
	m.Locked = false
	m.LockedBy = rtoskernel.InvalidIndex
	return true, 0, false
}

// Remove drops taskIdx from m's wait queue (used when taskIdx is killed
// while blocked). It reports whether taskIdx was queued.
func (m *Mutex) Remove(taskIdx int) bool {
	return m.queue.remove(taskIdx)
}

// ReleaseHeldBy forcibly releases m when its holder taskIdx is killed,
// exactly like Unlock but without requiring the caller to be the holder
// (spec.md §4.4 op 9, KILL: "hand off mutexes it held").
func (m *Mutex) ReleaseHeldBy(taskIdx int) (released bool, handoff int, hasHandoff bool) {
	if !m.Locked || m.LockedBy != taskIdx {
		return false, 0, false
	}
	if next, has := m.queue.pop(); has {
		m.LockedBy = next
		return true, next, true
	}
	m.Locked = false
	m.LockedBy = rtoskernel.InvalidIndex
	return true, 0, false
}

// QueueSize reports the number of tasks currently waiting on m.
func (m *Mutex) QueueSize() int { return m.queue.len() }

// QueueSnapshot returns the waiting task indices, head first, for IPCS
// rendering.
func (m *Mutex) QueueSnapshot() []int { return m.queue.snapshot() }
