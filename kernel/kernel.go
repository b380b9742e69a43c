// Package kernel is the core of rtoskernel: the TCB table, the SVC
// dispatch gateway, the PendSV context-switch state machine, and the
// SysTick driver (spec.md §4.3, §4.4, components C2/C5/C6/C7). It is the
// single place kernel tables are mutated, matching spec.md §5's "all
// kernel tables are mutated only in handler mode" — here, "handler mode"
// is simply the one goroutine running Kernel.run.
package kernel

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"rtoskernel"
	"rtoskernel/hal"
	"rtoskernel/ksync"
	"rtoskernel/mpu"
	"rtoskernel/sched"
)

// Kernel is the process-wide singleton described in spec.md §9 ("Global
// mutable state"). Every field it owns is touched only from run, the
// handler goroutine started by Start.
type Kernel struct {
	tasks   [rtoskernel.MaxTasks]Task
	mutexes [rtoskernel.MaxMutexes]*ksync.Mutex
	sems    [rtoskernel.MaxSemaphores]*ksync.Semaphore
	heap    *mpu.Heap
	sched   *sched.Scheduler

	// cpu is the single-core property itself: a weighted semaphore of
	// capacity 1 (spec.md §0's "single CPU token"). Exactly one task
	// goroutine holds it while running application code; it is released
	// the instant a task issues an SVC (traps into the handler) and
	// re-acquired only once the handler has replied, the same instant a
	// real CPU returns to thread mode.
	cpu *semaphore.Weighted

	current int // index of the task currently holding the CPU token, -1 before Start

	preemptEnabled bool
	piEnabled      bool
	halted         bool

	acct cpuAccounting

	boot func(*Kernel) // the embedder's task-creation sequence, replayed on REBOOT

	log     hal.Logger
	driver  hal.MPUDriver
	metrics *hal.Metrics // nil unless WithMetrics is supplied

	reqCh  chan svcRequest
	tickCh chan struct{}
	stopCh chan struct{}

	// wg counts every task goroutine ever spawned. It is never waited on:
	// a killed or rebooted task's goroutine is abandoned parked on its
	// replyCh, matching spec.md §5's "no graceful shutdown." It exists so
	// tests can at least observe how many goroutines a scenario leaked.
	wg sync.WaitGroup
}

// Option configures a Kernel at construction.
type Option func(*Kernel)

// WithLogger sets the logger used for fault/kill/reboot diagnostics.
func WithLogger(l hal.Logger) Option { return func(k *Kernel) { k.log = l } }

// WithMPUDriver sets the driver that receives region-mask updates on every
// context switch.
func WithMPUDriver(d hal.MPUDriver) Option { return func(k *Kernel) { k.driver = d } }

// WithMetrics hands the kernel a set of expvar counters to increment on
// every context switch, fault, and reboot. Omitted, the kernel simply
// doesn't count — there's no NopMetrics, every increment site checks
// k.metrics != nil.
func WithMetrics(m *hal.Metrics) Option { return func(k *Kernel) { k.metrics = m } }

// New returns an initialized, un-started Kernel: every table at its
// power-on-reset default (spec.md §6, "Persisted state: none").
func New(opts ...Option) *Kernel {
	k := &Kernel{
		heap:    mpu.NewHeap(),
		sched:   sched.NewScheduler(),
		cpu:     semaphore.NewWeighted(1),
		current: -1,
		log:     hal.NopLogger{},
		driver:  hal.NopMPUDriver{},
		reqCh:   make(chan svcRequest),
		tickCh:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	for i := range k.tasks {
		k.tasks[i] = newEmptyTask()
	}
	for i := range k.mutexes {
		k.mutexes[i] = ksync.NewMutex()
	}
	for i := range k.sems {
		k.sems[i] = ksync.NewSemaphore(0)
	}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Env is the surface a task's EntryFunc uses to call into the kernel; see
// task.go's EntryFunc doc.
type Env struct {
	k   *Kernel
	idx int
}

// call sends an SVC request for the calling task and blocks until the
// kernel replies — exactly like a real SVC instruction doesn't return
// until the handler is done with it, including, for a blocking op, until
// the task is rescheduled.
func (e *Env) call(op opKind, a0, a1 uint32, name string) svcResult {
	e.k.cpu.Release(1)
	e.k.reqCh <- svcRequest{taskIdx: e.idx, op: op, a0: a0, a1: a1, name: name}
	res := <-e.k.tasks[e.idx].replyCh
	e.k.cpu.Acquire(context.Background(), 1)
	return res
}

// run is the handler goroutine: the sole mutator of every kernel table.
func (k *Kernel) run() {
	for {
		select {
		case <-k.stopCh:
			return
		case <-k.tickCh:
			k.handleSysTick()
		case req := <-k.reqCh:
			k.dispatch(req)
		}
	}
}

func (k *Kernel) taskViews() []sched.TaskView {
	views := make([]sched.TaskView, len(k.tasks))
	for i, t := range k.tasks {
		views[i] = sched.TaskView{Index: i, State: t.State, CurrentPriority: t.CurrentPriority}
	}
	return views
}
