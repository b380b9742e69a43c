package ksync

import "testing"

func TestPostThenWaitOnZeroSemaphoreLeavesCountZero(t *testing.T) {
	s := NewSemaphore(0)
	woken, wokeSomeone := s.Post()
	if wokeSomeone {
		t.Fatalf("Post on an empty queue should not wake anyone, got task %d", woken)
	}
	acquired, queued := s.Wait(1)
	if !acquired || queued {
		t.Fatalf("Wait after Post: acquired=%v queued=%v, want true,false", acquired, queued)
	}
	if s.Count != 0 {
		t.Fatalf("count = %d, want 0", s.Count)
	}
	if s.QueueSize() != 0 {
		t.Fatalf("queue size = %d, want 0", s.QueueSize())
	}
}

func TestWaitOnZeroSemaphoreQueuesCaller(t *testing.T) {
	s := NewSemaphore(0)
	acquired, queued := s.Wait(5)
	if acquired || !queued {
		t.Fatalf("Wait on zero semaphore: acquired=%v queued=%v, want false,true", acquired, queued)
	}
}

func TestPostWakesQueuedWaiterWithoutChangingCount(t *testing.T) {
	s := NewSemaphore(0)
	s.Wait(5)
	s.Wait(6)

	woken, wokeSomeone := s.Post()
	if !wokeSomeone || woken != 5 {
		t.Fatalf("Post = woken=%d wokeSomeone=%v, want 5,true", woken, wokeSomeone)
	}
	if s.Count != 0 {
		t.Fatalf("count after waking a waiter = %d, want 0", s.Count)
	}
	if s.QueueSize() != 1 {
		t.Fatalf("queue size after one Post = %d, want 1", s.QueueSize())
	}
}

func TestSemaphoreQueueOverflow(t *testing.T) {
	s := NewSemaphore(0)
	for i := 0; i < 8; i++ {
		_, queued := s.Wait(i)
		if !queued {
			t.Fatalf("Wait(%d) should queue, queue not yet full", i)
		}
	}
	_, queued := s.Wait(999)
	if queued {
		t.Fatal("Wait on a full queue should not enqueue")
	}
}
