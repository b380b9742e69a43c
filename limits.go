// Package rtoskernel holds the fixed, compile-time tunables shared by every
// subpackage of the kernel. A flashed image would carry these as #define
// constants; here they are typed Go constants so every package that needs
// them (mpu, ksync, sched, kernel, shell) imports one source of truth
// instead of redeclaring magic numbers.
package rtoskernel

// Table sizes. These bound every fixed-size kernel table; none of them
// grow at runtime.
const (
	MaxTasks      = 16
	NameSize      = 16 // bytes, including the terminating NUL
	NumPriorities = 16 // priority 0 is highest, NumPriorities-1 is lowest

	MaxMutexes            = 8
	MaxMutexQueueSize     = 8
	MaxSemaphores         = 8
	MaxSemaphoreQueueSize = 8

	MaxAllocations = 32
)

// CPU-accounting period, in milliseconds. When the SysTick accounting
// counter reaches this value the ping-pong buffers flip and the
// just-retired buffer is zeroed (spec.md §4.3).
const TaskCPUTimePeriodMS = 2000

// SysTick period. The kernel's simulated tick fires this often.
const TickInterval = 1 // milliseconds

// InvalidIndex marks an empty slot in a TCB/mutex/semaphore reference
// field (mutex_ix, sem_ix, queue entries).
const InvalidIndex = -1
