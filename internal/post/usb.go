package post

import "sync"

// DefaultUSBCapacity is the number of USB ports on the default mainboard.
const DefaultUSBCapacity = 6

// USBBus is a bounded, ordered list of attached USB devices. Adding a device
// to a full bus is silently dropped; it is not an error.
type USBBus struct {
	mu       sync.Mutex
	capacity int
	devices  []*USBDevice
}

// NewUSBBus returns an empty bus with the given number of ports.
func NewUSBBus(capacity int) *USBBus {
	if capacity <= 0 {
		capacity = DefaultUSBCapacity
	}
	return &USBBus{capacity: capacity, devices: make([]*USBDevice, 0, capacity)}
}

// Add attaches d if a port is free and reports whether it was attached.
func (b *USBBus) Add(d *USBDevice) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.devices) >= b.capacity {
		return false
	}
	b.devices = append(b.devices, d)
	return true
}

// Remove detaches the first occurrence of d and reports whether it was
// attached.
func (b *USBBus) Remove(d *USBDevice) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, attached := range b.devices {
		if attached == d {
			b.devices = append(b.devices[:i], b.devices[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of attached devices.
func (b *USBBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.devices)
}

// Cap returns the number of ports.
func (b *USBBus) Cap() int { return b.capacity }

// Snapshot returns a copy of the attached devices, safe to iterate while the
// bus is being modified.
func (b *USBBus) Snapshot() []*USBDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*USBDevice, len(b.devices))
	copy(out, b.devices)
	return out
}
