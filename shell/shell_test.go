package shell

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"rtoskernel/kernel"
)

func TestSplitFields(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"ps", []string{"ps"}},
		{"kill 0000002a", []string{"kill", "0000002a"}},
		{"  PI    ON  ", []string{"pi", "on"}},
		{"pkill, Idle-Task!", []string{"pkill", "idle", "task"}},
		{"", nil},
		{"   ", nil},
	}
	for _, c := range cases {
		got := splitFields(c.in)
		if len(got) != len(c.want) {
			t.Errorf("splitFields(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("splitFields(%q) = %v, want %v", c.in, got, c.want)
				break
			}
		}
	}
}

func TestParsePid(t *testing.T) {
	pid, err := parsePid("0000002a")
	if err != nil || pid != 42 {
		t.Fatalf("parsePid = %v,%v, want 42,nil", pid, err)
	}
	if _, err := parsePid("not-hex"); err == nil {
		t.Fatal("parsePid should reject a non-hex argument")
	}
}

// TestShellReportsWorkerInPS drives a real kernel with a shell task and a
// sleeping worker task through a single "ps" command and checks the
// worker's name shows up in the rendered table.
func TestShellReportsWorkerInPS(t *testing.T) {
	k := kernel.New()
	var out bytes.Buffer
	pr, pw := io.Pipe()
	done := make(chan struct{})

	boot := func(k *kernel.Kernel) {
		k.CreateTask(func(env *kernel.Env) {
			New(pr, &out, env).Run()
			close(done)
		}, "shell", 1, 512)
		k.CreateTask(func(env *kernel.Env) {
			for {
				env.Sleep(1000)
			}
		}, "worker", 2, 512)
	}
	k.Start(boot)

	io.WriteString(pw, "ps\n")
	pw.Close()
	<-done

	if !strings.Contains(out.String(), "worker") {
		t.Errorf("ps output missing worker task:\n%s", out.String())
	}
}
