package post

import "github.com/tphummel/lab_post/internal/models"

// Slot hints used to size the mainboard's device lists.
const (
	memorySlots   = 4
	hardDiskSlots = 2
	graphicsSlots = 2
)

// Devices is the set of child devices installed on a mainboard at power-on.
type Devices struct {
	CPU       *CPU
	Memory    []*Memory
	HardDisks []*HardDisk
	USB       []*USBDevice
	Graphics  []*GraphicsCard
}

// Fixture returns the devices a mainboard installs when it is powered on.
type Fixture func() Devices

// DefaultFixture is the stock machine: one CPU, two memory modules, three
// hard disks, a mouse and a keyboard, and two graphics cards.
func DefaultFixture() Devices {
	return Devices{
		CPU:       NewCPU("CPU1"),
		Memory:    []*Memory{NewMemory("Memory1"), NewMemory("Memory2")},
		HardDisks: []*HardDisk{NewHardDisk("HardDisk1"), NewHardDisk("HardDisk2"), NewHardDisk("HardDisk3")},
		USB:       []*USBDevice{NewUSBDevice("Mouse1"), NewUSBDevice("KeyBoard1")},
		Graphics:  []*GraphicsCard{NewGraphicsCard("GraphicsCard1"), NewGraphicsCard("GraphicsCard2")},
	}
}

// Mainboard carries the CPU and the device lists. Lists stay empty until
// PowerOn.
type Mainboard struct {
	Identity
	CPU       *CPU
	Memory    []*Memory
	HardDisks []*HardDisk
	USB       *USBBus
	Graphics  []*GraphicsCard

	fixture Fixture
	powered bool
}

// NewMainboard returns an unpowered mainboard. A nil fixture selects
// DefaultFixture.
func NewMainboard(serial string, fixture Fixture, usbCapacity int) *Mainboard {
	if fixture == nil {
		fixture = DefaultFixture
	}
	return &Mainboard{
		Identity:  Identity{Serial: serial, Type: models.DeviceMainBoard},
		Memory:    make([]*Memory, 0, memorySlots),
		HardDisks: make([]*HardDisk, 0, hardDiskSlots),
		USB:       NewUSBBus(usbCapacity),
		Graphics:  make([]*GraphicsCard, 0, graphicsSlots),
		fixture:   fixture,
	}
}

// PowerOn installs the fixture devices. The hard disk list is sized for two
// slots but takes every disk the fixture provides; the default fixture has
// three. Calling PowerOn again does nothing.
func (m *Mainboard) PowerOn() {
	if m.powered {
		return
	}
	m.powered = true

	d := m.fixture()
	m.CPU = d.CPU
	m.Memory = append(m.Memory, d.Memory...)
	m.HardDisks = append(m.HardDisks, d.HardDisks...)
	m.Graphics = append(m.Graphics, d.Graphics...)
	for _, u := range d.USB {
		m.USB.Add(u)
	}
}

// Powered reports whether PowerOn has run.
func (m *Mainboard) Powered() bool { return m.powered }

// AddUSBDevice plugs usb into a free port. It reports false, and changes
// nothing, when every port is taken.
func (m *Mainboard) AddUSBDevice(usb *USBDevice) bool {
	return m.USB.Add(usb)
}

// RemoveUSBDevice unplugs usb. It reports false if usb was not plugged in.
func (m *Mainboard) RemoveUSBDevice(usb *USBDevice) bool {
	return m.USB.Remove(usb)
}

// PrimaryGraphics returns the first installed graphics card, or nil.
func (m *Mainboard) PrimaryGraphics() *GraphicsCard {
	for _, g := range m.Graphics {
		if g != nil {
			return g
		}
	}
	return nil
}

// Host is the case: a power supply and a mainboard.
type Host struct {
	Identity
	PowerSupply *PowerSupply
	Mainboard   *Mainboard
}

// NewHost builds the host, its power supply and its mainboard from opts.
func NewHost(opts Options) *Host {
	return &Host{
		Identity:    Identity{Serial: "Host1", Type: models.DeviceHost},
		PowerSupply: NewPowerSupply("PowerSupply1", opts.StandbyVoltage, opts.NormalVoltage),
		Mainboard:   NewMainboard("MainBoard1", opts.Fixture, opts.USBCapacity),
	}
}

// PowerOn propagates full power to the mainboard.
func (h *Host) PowerOn() {
	h.Mainboard.PowerOn()
}
