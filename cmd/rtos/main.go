// Command rtos is the hosted analogue of the original firmware's main():
// it wires up the HAL (console, logger, SysTick, optional metrics), boots
// the kernel with a fixed task table, and runs the shell as the
// lowest-overhead interactive task, the same sequencing rtos.c follows
// (initHw / initRtos / createThread.../startRtos).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"rtoskernel"
	"rtoskernel/hal"
	"rtoskernel/kernel"
	"rtoskernel/shell"
)

func main() {
	syslogAddr := flag.String("syslog", "", "host:port of a UDP syslog collector to mirror fault/kill/reboot diagnostics to")
	metricsAddr := flag.String("metrics", "", "host:port to serve expvar debug metrics on, empty to disable")
	flag.Parse()

	cfg := hal.Config{SyslogAddr: *syslogAddr, MetricsAddr: *metricsAddr}

	console, err := hal.NewConsole()
	if err != nil {
		fmt.Fprintln(os.Stderr, "rtos: console init:", err)
		os.Exit(1)
	}
	defer console.Restore()

	logger := buildLogger(cfg, console)
	opts := []kernel.Option{kernel.WithLogger(logger), kernel.WithMPUDriver(hal.LoggingMPUDriver{Logger: logger})}
	if cfg.MetricsAddr != "" {
		m := hal.NewMetrics()
		hal.StartMetrics(cfg.MetricsAddr)
		opts = append(opts, kernel.WithMetrics(m))
	}

	k := kernel.New(opts...)

	k.Start(bootTasks(console))

	tick := hal.NewSysTick(rtoskernel.TickInterval * time.Millisecond)
	defer tick.Stop()
	for range tick.C() {
		k.Tick()
	}
}

// buildLogger mirrors every fault/kill/reboot line to the console and,
// when configured, to a remote syslog collector — the hosted stand-in for
// the original's UART0 printf plus an optional lab bench's packet capture.
func buildLogger(cfg hal.Config, console hal.Console) hal.Logger {
	base := hal.NewStdLogger(console)
	if cfg.SyslogAddr == "" {
		return base
	}
	return hal.MultiLogger{base, hal.NewSyslogLogger(cfg.SyslogAddr, "rtos")}
}

// bootTasks reproduces rtos.c's "Add required idle process at lowest
// priority" / "Add other processes" / "Start up RTOS" sequence: the idle
// task always exists at the lowest priority (spec.md §4.2's "an idle task
// of the lowest priority must always exist to guarantee progress"), and
// the shell runs as an ordinary task reading from console.
func bootTasks(console hal.Console) func(*kernel.Kernel) {
	return func(k *kernel.Kernel) {
		k.CreateTask(func(env *kernel.Env) {
			for {
				env.Sleep(1000)
			}
		}, "Idle", rtoskernel.NumPriorities-1, 512)

		k.CreateTask(func(env *kernel.Env) {
			shell.New(console, console, env).Run()
		}, "Shell", 8, 4096)
	}
}
