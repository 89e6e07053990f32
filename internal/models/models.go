package models

import "time"

// DeviceType is the category tag carried by every device identity.
type DeviceType string

const (
	DeviceCPU          DeviceType = "CPU"
	DeviceMemory       DeviceType = "Memory"
	DeviceHardDisk     DeviceType = "HardDisk"
	DeviceUSB          DeviceType = "USB"
	DeviceGraphicsCard DeviceType = "GraphicsCard"
	DevicePowerSupply  DeviceType = "PowerSupply"
	DeviceMainBoard    DeviceType = "MainBoard"
	DeviceHost         DeviceType = "Host"
	DeviceMonitor      DeviceType = "Monitor"
	DeviceComputer     DeviceType = "Computer"
)

// ValidDeviceTypes is the closed set of device type tags.
var ValidDeviceTypes = map[DeviceType]bool{
	DeviceCPU:          true,
	DeviceMemory:       true,
	DeviceHardDisk:     true,
	DeviceUSB:          true,
	DeviceGraphicsCard: true,
	DevicePowerSupply:  true,
	DeviceMainBoard:    true,
	DeviceHost:         true,
	DeviceMonitor:      true,
	DeviceComputer:     true,
}

// Outcome values recorded for a finished boot run.
const (
	OutcomeOpened = "opened"
	OutcomeFailed = "failed"
)

// ValidOutcomes is the set of allowed boot run outcome values.
var ValidOutcomes = map[string]bool{
	OutcomeOpened: true,
	OutcomeFailed: true,
}

// DeviceResult is the result of checking one device during a boot run. Type
// is the category the device was tested as; Claimed is the tag the device
// carried, set only when it differs.
type DeviceResult struct {
	Serial  string     `json:"serial"`
	Type    DeviceType `json:"type"`
	Claimed DeviceType `json:"claimed_type,omitempty"`
	OK      bool       `json:"ok"`
}

// BootRun is the record of one power-on self-test run.
type BootRun struct {
	ID             string         `json:"id"`
	Serial         string         `json:"serial"`
	StandbyVoltage float64        `json:"standby_voltage"`
	NormalVoltage  float64        `json:"normal_voltage"`
	State          string         `json:"state"`
	Outcome        string         `json:"outcome"`
	Stage          string         `json:"stage,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Messages       []string       `json:"messages"`
	Devices        []DeviceResult `json:"devices"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
}

// Opened reports whether the run ended with the computer booted.
func (b *BootRun) Opened() bool {
	return b.Outcome == OutcomeOpened
}

// BootRequest is the body of a boot request. Omitted fields fall back to the
// configured machine.
type BootRequest struct {
	Serial         *string  `json:"serial,omitempty"`
	StandbyVoltage *float64 `json:"standby_voltage,omitempty"`
	NormalVoltage  *float64 `json:"normal_voltage,omitempty"`
}
