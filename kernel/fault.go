package kernel

import "fmt"

// FaultKind classifies which CPU fault trapped (spec.md §7): a
// MemManage/Usage fault is recoverable (the offending task is killed and
// the system continues); a Bus/Hard fault halts the CPU outright.
type FaultKind int

const (
	FaultMemManage FaultKind = iota
	FaultUsage
	FaultBus
	FaultHard
)

func (k FaultKind) String() string {
	switch k {
	case FaultMemManage:
		return "MemManage"
	case FaultUsage:
		return "Usage"
	case FaultBus:
		return "Bus"
	case FaultHard:
		return "Hard"
	default:
		return "Unknown"
	}
}

// Fault reproduces spec.md §4.3 step 3 and §7's fault-recovery path: "if
// the MPU fault-status shows an unserviced data/instruction access error
// that landed on the task's stack window, free that task's stack block,
// mark it STOPPED, and log it." There is no real MPU underneath this
// hosted kernel to trap the access itself, so a fault is injected
// explicitly by the caller (in this repository, only tests call it),
// naming which task faulted, on what kind of access, and at what address.
// The address is only logged; it is not checked against the task's window.
//
// MemManage/Usage faults are recoverable: the owning task is killed (its
// stack block and every heap allocation it owns are freed, exactly like
// KILL) and the scheduler picks a replacement. Bus/Hard faults are not:
// they halt the simulated CPU, matching "hard and bus faults halt the
// CPU" in spec.md §7.
func (k *Kernel) Fault(taskIdx int, kind FaultKind, addr uint32) {
	t := &k.tasks[taskIdx]
	k.log.Faultf("%s fault: pid=%#x name=%s addr=%#x", kind, t.Pid, t.Name, addr)
	if k.metrics != nil {
		k.metrics.Faults.Add(1)
	}

	if kind == FaultBus || kind == FaultHard {
		k.halt(fmt.Sprintf("unrecoverable %s fault at %#x", kind, addr))
		return
	}

	k.killTask(taskIdx, fmt.Sprintf("%s fault at %#x", kind, addr))
	k.runPendSV()
}

// halt stops the handler goroutine exactly once, the hosted analogue of
// the CPU spinning forever in the fault handler after an unrecoverable
// trap.
func (k *Kernel) halt(reason string) {
	if k.halted {
		return
	}
	k.halted = true
	k.log.Infof("CPU halted: %s", reason)
	close(k.stopCh)
}
