// Package hal collects the kernel's leaf hardware-abstraction
// dependencies: console I/O, the SysTick timer source, logging, and an
// optional debug-metrics endpoint. None of it touches kernel tables —
// spec.md §1 treats the HAL as "a leaf dependency used only for console
// I/O and timer programming," and that holds here too.
package hal

import (
	"fmt"
	"io"
	"log"
)

// Logger is the leveled logging surface the kernel uses for fault, kill,
// and reboot diagnostics. It is deliberately narrow — three levels, no
// structured fields — matching the teacher's log.Logger rather than
// reaching for a structured-logging library the retrieved pack never
// shows (see DESIGN.md).
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Faultf(format string, args ...any)
}

// StdLogger adapts the standard library's log.Logger (the way the
// teacher's log/log.go wraps an io.Writer with a prefix) into three
// leveled methods.
type StdLogger struct {
	*log.Logger
}

// NewStdLogger returns a Logger writing to w with a time-of-day timestamp
// at microsecond resolution (log.Lmicroseconds; no date).
func NewStdLogger(w io.Writer) StdLogger {
	return StdLogger{Logger: log.New(w, "", log.Lmicroseconds)}
}

func (l StdLogger) Infof(format string, args ...any) {
	l.Output(2, "[KERN] "+fmt.Sprintf(format, args...))
}

func (l StdLogger) Warnf(format string, args ...any) {
	l.Output(2, "[WARN] "+fmt.Sprintf(format, args...))
}

func (l StdLogger) Faultf(format string, args ...any) {
	l.Output(2, "[FAULT] "+fmt.Sprintf(format, args...))
}

// NopLogger discards everything; the default when a caller doesn't supply
// a Logger.
type NopLogger struct{}

func (NopLogger) Infof(string, ...any)   {}
func (NopLogger) Warnf(string, ...any)   {}
func (NopLogger) Faultf(string, ...any)  {}

// MultiLogger fans a single log call out to several Loggers — used to
// drive both a console StdLogger and an optional SyslogLogger at once.
type MultiLogger []Logger

func (m MultiLogger) Infof(format string, args ...any) {
	for _, l := range m {
		l.Infof(format, args...)
	}
}
func (m MultiLogger) Warnf(format string, args ...any) {
	for _, l := range m {
		l.Warnf(format, args...)
	}
}
func (m MultiLogger) Faultf(format string, args ...any) {
	for _, l := range m {
		l.Faultf(format, args...)
	}
}
