package kernel

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"rtoskernel"
	"rtoskernel/mpu"
)

// renderIPCS implements op 8, IPCS: render mutex and semaphore state to
// console, one line per table entry, queue contents head-first.
func (k *Kernel) renderIPCS() string {
	var buf bytes.Buffer
	buf.WriteString("MUTEX  LOCKED  OWNER            QUEUE\n")
	for i, m := range k.mutexes {
		owner := "-"
		if m.Locked {
			owner = k.describeIdx(m.LockedBy)
		}
		fmt.Fprintf(&buf, "%-6d %-7v %-16s %s\n", i, m.Locked, owner, k.describeQueue(m.QueueSnapshot()))
	}
	buf.WriteString("\nSEM    COUNT   QUEUE\n")
	for i, s := range k.sems {
		fmt.Fprintf(&buf, "%-6d %-7d %s\n", i, s.Count, k.describeQueue(s.QueueSnapshot()))
	}
	return buf.String()
}

// renderMemInfo implements op 15, MEMINFO: render the heap ledger and
// free space summary.
func (k *Kernel) renderMemInfo() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "state=%#016x used=%d free=%d\n", k.heap.StateWord(), k.heap.UsedSpace(), k.heap.FreeSpace())
	ledger := k.heap.Ledger()
	sort.Slice(ledger, func(i, j int) bool { return ledger[i].Base < ledger[j].Base })
	buf.WriteString("BASE    SIZE    OWNER\n")
	for _, a := range ledger {
		fmt.Fprintf(&buf, "%#06x  %-6d  %s\n", mpuHeapAddr(a.Base), a.Size, strconv.FormatUint(uint64(a.Owner), 16))
	}
	return buf.String()
}

// renderPS implements op 20, PS: snapshot per-task state, reporting CPU%
// as cycles-in-the-read-buffer over a full accounting period in
// hundredths of a percent, plus a synthetic "kernel" row for the
// remainder of the period no task accounted for.
func (k *Kernel) renderPS() string {
	var buf bytes.Buffer
	buf.WriteString("PID       NAME             STATE          PRI  CPRI  MUTEX  SEM  CPU%\n")
	var taskCycles uint32
	rows := make([]int, 0, len(k.tasks))
	for i := range k.tasks {
		if k.tasks[i].State != rtoskernel.StateInvalid {
			rows = append(rows, i)
		}
	}
	sort.Ints(rows)
	for _, i := range rows {
		t := k.tasks[i]
		cycles := k.acct.readCycles(t)
		taskCycles += cycles
		fmt.Fprintf(&buf, "%#08x  %-16s %-14s %-4d %-5d %-6s %-4s %d\n",
			t.Pid, t.Name, t.State, t.Priority, t.CurrentPriority,
			indexOrDash(t.MutexIx), indexOrDash(t.SemIx), cpuPercent(cycles))
	}
	kernelCycles := uint32(rtoskernel.TaskCPUTimePeriodMS) - taskCycles
	fmt.Fprintf(&buf, "%-10s%-16s %-14s %-4s %-5s %-6s %-4s %d\n",
		"-", "kernel", "-", "-", "-", "-", "-", cpuPercent(kernelCycles))
	return buf.String()
}

func indexOrDash(idx int) string {
	if idx == rtoskernel.InvalidIndex {
		return "-"
	}
	return strconv.Itoa(idx)
}

func (k *Kernel) describeIdx(idx int) string {
	if idx < 0 || idx >= len(k.tasks) {
		return "-"
	}
	return k.tasks[idx].Name
}

func (k *Kernel) describeQueue(idxs []int) string {
	if len(idxs) == 0 {
		return "-"
	}
	var buf bytes.Buffer
	for i, idx := range idxs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(k.describeIdx(idx))
	}
	return buf.String()
}

func mpuHeapAddr(base int) int { return mpu.HeapBase + base }
