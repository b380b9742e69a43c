// Package shell implements the interactive console client described in
// spec.md §6: a line-oriented command set that issues ordinary kernel
// requests through an Env and prints back whatever the kernel renders.
// The shell never touches a kernel table directly — spec.md §1 is
// explicit that "the shell is a client that issues kernel requests and
// reads back results" — so everything here is built on the same Env
// surface any other task uses.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"rtoskernel"
	"rtoskernel/kernel"
)

// Shell reads newline-terminated commands from a console and writes
// responses back to it. It is meant to run as the body of a dedicated
// task's EntryFunc (see Run), the same way any other task only reaches
// the kernel through its Env.
type Shell struct {
	in  *bufio.Scanner
	out io.Writer
	env *kernel.Env
}

// New builds a Shell reading commands from r and writing output to w,
// issuing every command through env.
func New(r io.Reader, w io.Writer, env *kernel.Env) *Shell {
	return &Shell{in: bufio.NewScanner(r), out: w, env: env}
}

// Run reads commands until the input is exhausted or a reboot command is
// issued. Per spec.md §6, "Exit: only reboot" — every other command
// returns control to the prompt; reboot's Env call never returns (the
// kernel abandons the calling task, same as any other task caught by a
// reboot), so Run simply never reaches its next iteration in that case.
func (s *Shell) Run() {
	for s.in.Scan() {
		fields := splitFields(s.in.Text())
		if len(fields) == 0 {
			continue
		}
		s.dispatch(fields)
	}
}

// splitFields implements spec.md §6's tokenizing rule: "fields are
// separated by runs of non-alphanumeric characters; names are
// case-insensitive (normalized to lower case)."
func splitFields(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

func (s *Shell) dispatch(fields []string) {
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "reboot":
		s.env.Reboot()

	case "ps":
		fmt.Fprint(s.out, s.env.Ps())

	case "ipcs":
		fmt.Fprint(s.out, s.env.Ipcs())

	case "meminfo":
		fmt.Fprint(s.out, s.env.MemInfo())

	case "kill":
		pid, err := parsePid(arg)
		if err != nil {
			fmt.Fprintf(s.out, "kill: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "kill: %v\n", s.env.Kill(pid))

	case "pkill":
		fmt.Fprintf(s.out, "pkill: %v\n", s.env.PKill(arg))

	case "pidof":
		pid := s.env.PidOf(arg)
		fmt.Fprintf(s.out, "%08x\n", uint32(pid))

	case "pi":
		s.env.PI(arg == "on")

	case "preempt":
		s.env.Preempt(arg == "on")

	case "sched":
		mode := rtoskernel.SchedPriority
		if arg == "rr" {
			mode = rtoskernel.SchedRoundRobin
		}
		s.env.Sched(mode)

	default:
		// Any other bare token names a STOPPED task to restart
		// (spec.md §6: "any bare task name for restart").
		fmt.Fprintf(s.out, "restart %s: %v\n", cmd, s.env.NameR(cmd))
	}
}

// parsePid decodes an 8-digit hex pid without a "0x" prefix, per
// spec.md §6.
func parsePid(s string) (rtoskernel.Pid, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pid %q: %w", s, err)
	}
	return rtoskernel.Pid(v), nil
}
