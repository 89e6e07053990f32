package post

import "github.com/tphummel/lab_post/internal/models"

// Nominal capacities. They describe the device and are never checked.
const (
	MemoryCapacity   = 4
	HardDiskCapacity = 256
)

// Identity is the serial number and type tag carried by every device.
type Identity struct {
	Serial string            `json:"serial"`
	Type   models.DeviceType `json:"type"`
}

// Valid reports whether the identity has a serial number and carries the
// expected type tag. Unknown tags are never valid.
func (id Identity) Valid(expected models.DeviceType) bool {
	return id.Serial != "" && id.Type == expected && models.ValidDeviceTypes[expected]
}

// result records a check of id in the given category.
func (id Identity) result(category models.DeviceType, ok bool) models.DeviceResult {
	res := models.DeviceResult{Serial: id.Serial, Type: category, OK: ok}
	if id.Type != category {
		res.Claimed = id.Type
	}
	return res
}

// identified is implemented by the pointer device types so that list scans
// can treat a nil entry as an empty slot.
type identified interface {
	identity() *Identity
}

// Memory is a memory module.
type Memory struct {
	Identity
	CapacityGB int `json:"capacity_gb"`
}

// NewMemory returns a memory module with the nominal capacity.
func NewMemory(serial string) *Memory {
	return &Memory{Identity: Identity{Serial: serial, Type: models.DeviceMemory}, CapacityGB: MemoryCapacity}
}

func (m *Memory) identity() *Identity {
	if m == nil {
		return nil
	}
	return &m.Identity
}

// HardDisk is a storage unit.
type HardDisk struct {
	Identity
	CapacityGB int `json:"capacity_gb"`
}

// NewHardDisk returns a storage unit with the nominal capacity.
func NewHardDisk(serial string) *HardDisk {
	return &HardDisk{Identity: Identity{Serial: serial, Type: models.DeviceHardDisk}, CapacityGB: HardDiskCapacity}
}

func (d *HardDisk) identity() *Identity {
	if d == nil {
		return nil
	}
	return &d.Identity
}

// USBDevice is a peripheral attached to the mainboard's USB bus.
type USBDevice struct {
	Identity
}

// NewUSBDevice returns a USB peripheral.
func NewUSBDevice(serial string) *USBDevice {
	return &USBDevice{Identity: Identity{Serial: serial, Type: models.DeviceUSB}}
}

func (u *USBDevice) identity() *Identity {
	if u == nil {
		return nil
	}
	return &u.Identity
}

// GraphicsCard relays identity strings and image signals to the display.
// The transforms are pass-through.
type GraphicsCard struct {
	Identity
}

// NewGraphicsCard returns a graphics card.
func NewGraphicsCard(serial string) *GraphicsCard {
	return &GraphicsCard{Identity: Identity{Serial: serial, Type: models.DeviceGraphicsCard}}
}

func (g *GraphicsCard) identity() *Identity {
	if g == nil {
		return nil
	}
	return &g.Identity
}

// SerialNumber converts a serial number for display.
func (g *GraphicsCard) SerialNumber(serial string) string { return serial }

// DeviceType converts a device type tag for display.
func (g *GraphicsCard) DeviceType(deviceType string) string { return deviceType }

// ImageSignal converts an image signal for display.
func (g *GraphicsCard) ImageSignal(signal string) string { return signal }

// PowerSupply feeds the host with a standby and a normal voltage.
type PowerSupply struct {
	Identity
	standbyVoltage float64
	normalVoltage  float64
}

// NewPowerSupply returns a power supply with fixed output voltages.
func NewPowerSupply(serial string, standby, normal float64) *PowerSupply {
	return &PowerSupply{
		Identity:       Identity{Serial: serial, Type: models.DevicePowerSupply},
		standbyVoltage: standby,
		normalVoltage:  normal,
	}
}

// Standby returns the standby voltage.
func (p *PowerSupply) Standby() float64 { return p.standbyVoltage }

// PowerOn returns the normal voltage.
func (p *PowerSupply) PowerOn() float64 { return p.normalVoltage }
