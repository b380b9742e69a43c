package hal

import (
	"expvar"
	"net/http"
)

// Metrics publishes a handful of expvar counters the shell's "ps"/"meminfo"
// commands don't otherwise surface: total context switches, total faults,
// and total reboots. It is optional — StartMetrics is only called when
// Config.MetricsAddr is set — matching spec.md's Non-goals around
// observability: the kernel itself never reads these vars back, they are
// strictly an outward-facing debug aid.
type Metrics struct {
	ContextSwitches *expvar.Int
	Faults          *expvar.Int
	Reboots         *expvar.Int
}

// NewMetrics registers a fresh set of counters under the "rtoskernel"
// expvar namespace.
func NewMetrics() *Metrics {
	ns := expvar.NewMap("rtoskernel")
	m := &Metrics{
		ContextSwitches: new(expvar.Int),
		Faults:          new(expvar.Int),
		Reboots:         new(expvar.Int),
	}
	ns.Set("context_switches", m.ContextSwitches)
	ns.Set("faults", m.Faults)
	ns.Set("reboots", m.Reboots)
	return m
}

// StartMetrics serves expvar's default handler (registered on
// http.DefaultServeMux by the expvar package's own init) on addr. It
// returns immediately; the listener runs in its own goroutine and is not
// joined on shutdown, matching the teacher's fire-and-forget debug-server
// idiom.
func StartMetrics(addr string) {
	go http.ListenAndServe(addr, nil)
}
