package hal

import "fmt"

// MPUDriver receives the region-byte programming that a real MPU_RASR/RBAR
// write would perform on every context switch. It is a leaf dependency —
// nothing in kernel reads it back — matching spec.md §9's "the MPU
// guarantees that user code cannot even read a task's TCB."
type MPUDriver interface {
	Apply(regionBytes [5]uint8)
}

// NopMPUDriver is the default: no physical MPU to program in the hosted
// build.
type NopMPUDriver struct{}

func (NopMPUDriver) Apply([5]uint8) {}

// LoggingMPUDriver records every region-mask write through a Logger,
// useful in integration tests that want to assert a task's window
// narrowed or widened without a real MPU underneath it.
type LoggingMPUDriver struct {
	Logger Logger
}

func (d LoggingMPUDriver) Apply(regionBytes [5]uint8) {
	d.Logger.Infof("mpu: apply %s", fmt.Sprintf("%02x %02x %02x %02x %02x",
		regionBytes[0], regionBytes[1], regionBytes[2], regionBytes[3], regionBytes[4]))
}
