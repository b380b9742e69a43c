package hal

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Console is the shell's byte-at-a-time view onto the terminal, the
// hosted analogue of the UART-polled console the original shell drives.
type Console interface {
	io.Reader
	io.Writer
	// Restore undoes any raw-mode switch made by the Console, to be
	// deferred immediately after construction.
	Restore() error
}

// rawConsole puts stdin into raw mode (no line buffering, no local echo)
// so the shell can read and react to a single keystroke the way the
// original shell's UART receive interrupt does.
type rawConsole struct {
	in, out *os.File
	state   *term.State
}

// NewConsole switches stdin to raw mode via golang.org/x/term. If stdin is
// not a terminal (e.g. piped input in a test), it falls back to ordinary
// buffered reads with no mode switch.
func NewConsole() (Console, error) {
	c := &rawConsole{in: os.Stdin, out: os.Stdout}
	fd := int(c.in.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		c.state = state
	}
	return c, nil
}

func (c *rawConsole) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *rawConsole) Write(p []byte) (int, error) { return c.out.Write(p) }

func (c *rawConsole) Restore() error {
	if c.state == nil {
		return nil
	}
	return term.Restore(int(c.in.Fd()), c.state)
}
