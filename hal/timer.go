package hal

import "time"

// SysTick drives the kernel's 1ms periodic tick. On real silicon this is
// the SysTick exception firing off a hardware countdown timer; hosted, it
// is a time.Ticker whose channel cmd/rtos drains into Kernel.Tick, which
// hands each tick to the kernel's tickCh so that ticks are serialized
// through the same handler goroutine as every SVC.
type SysTick struct {
	ticker *time.Ticker
}

// NewSysTick starts a ticker firing every interval (spec.md's fixed 1ms
// period, rtoskernel.TickInterval, widened to a time.Duration here since a
// hosted clock has no hardware prescaler to program).
func NewSysTick(interval time.Duration) *SysTick {
	return &SysTick{ticker: time.NewTicker(interval)}
}

// C is the channel that fires once per tick.
func (s *SysTick) C() <-chan time.Time { return s.ticker.C }

// Stop releases the underlying ticker.
func (s *SysTick) Stop() { s.ticker.Stop() }
