package post

import (
	"errors"
	"fmt"
)

// Stage names the step of the boot protocol at which a run stopped.
type Stage string

const (
	StagePower    Stage = "power"
	StagePowerOn  Stage = "power_on"
	StageSelfTest Stage = "self_test"
	StageMemory   Stage = "memory"
	StageGraphics Stage = "graphics"
	StageStorage  Stage = "storage"
)

// Reason is the machine-readable cause of a fatal boot failure.
type Reason string

const (
	ReasonPowerTooHigh    Reason = "power_too_high"
	ReasonPowerTooLow     Reason = "power_too_low"
	ReasonCPUAbsent       Reason = "cpu_absent"
	ReasonCPUSelfTest     Reason = "cpu_self_test_failed"
	ReasonMemoryAbsent    Reason = "memory_absent"
	ReasonMemoryDefective Reason = "memory_defective"
	ReasonGraphicsAbsent  Reason = "graphics_absent"
	ReasonStorageAbsent   Reason = "storage_absent"
)

var (
	// ErrFatal matches every *FatalError via errors.Is.
	ErrFatal = errors.New("fatal boot failure")

	// ErrInvalidState is returned when a sequencer operation is called out
	// of order, e.g. Open before EnterStandby or a second Open.
	ErrInvalidState = errors.New("invalid sequencer state")
)

// FatalError aborts a boot run.
type FatalError struct {
	Stage  Stage
	Reason Reason
	// Device is the serial number of the offending device, if any.
	Device string
}

func (e *FatalError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("%s: %s: %s", e.Stage, e.Reason, e.Device)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

// Is makes errors.Is(err, ErrFatal) true for any FatalError.
func (e *FatalError) Is(target error) bool {
	return target == ErrFatal
}

// ReasonOf returns the failure reason carried by err, or "" if err is not a
// fatal boot failure.
func ReasonOf(err error) Reason {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

func fatal(stage Stage, reason Reason, device string) error {
	return &FatalError{Stage: stage, Reason: reason, Device: device}
}
