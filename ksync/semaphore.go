package ksync

import "rtoskernel"

// Semaphore is one entry of the MAX_SEMAPHORES table (spec.md §3): a
// counting semaphore with a bounded FIFO wait queue.
type Semaphore struct {
	Count uint8
	queue *taskQueue
}

// NewSemaphore returns a semaphore initialized to count.
func NewSemaphore(count uint8) *Semaphore {
	return &Semaphore{Count: count, queue: newTaskQueue(rtoskernel.MaxSemaphoreQueueSize)}
}

// Wait services a WAIT request from taskIdx (spec.md §4.4 op 5).
//
//   - If Count > 0, it is decremented and acquired is true.
//   - Otherwise taskIdx is enqueued (queued is true) and the caller
//     transitions to BLOCKED_SEMAPHORE.
//   - If the queue is already full, neither is true (spec.md §7).
func (s *Semaphore) Wait(taskIdx int) (acquired, queued bool) {
	if s.Count > 0 {
		s.Count--
		return true, false
	}
	return false, s.queue.push(taskIdx)
}

// Post services a POST request (spec.md §4.4 op 6). Count is always
// incremented first; if a task was waiting, the increment is immediately
// consumed waking it ("re-decrement and wake head"), leaving Count
// unchanged and woken set to the task that should transition to READY.
func (s *Semaphore) Post() (woken int, wokeSomeone bool) {
	s.Count++
	if next, has := s.queue.pop(); has {
		s.Count--
		return next, true
	}
	return 0, false
}

// Remove drops taskIdx from s's wait queue (task killed while blocked).
func (s *Semaphore) Remove(taskIdx int) bool {
	return s.queue.remove(taskIdx)
}

// QueueSize reports the number of tasks currently waiting on s.
func (s *Semaphore) QueueSize() int { return s.queue.len() }

// QueueSnapshot returns the waiting task indices, head first, for IPCS
// rendering.
func (s *Semaphore) QueueSnapshot() []int { return s.queue.snapshot() }
