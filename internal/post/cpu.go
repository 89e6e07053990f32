package post

import (
	"fmt"

	"github.com/tphummel/lab_post/internal/models"
)

// CPU validates itself and every other device category. It keeps no state;
// results go to the Reporter and the returned error.
type CPU struct {
	Identity
}

// NewCPU returns a processor.
func NewCPU(serial string) *CPU {
	return &CPU{Identity: Identity{Serial: serial, Type: models.DeviceCPU}}
}

// SelfTest checks the CPU's own identity.
func (c *CPU) SelfTest(r Reporter) error {
	if c.Valid(models.DeviceCPU) {
		r.Report("CPU is normal")
		observe(r, c.Identity, models.DeviceCPU, true)
		return nil
	}
	r.Report("CPU is bad")
	observe(r, c.Identity, models.DeviceCPU, false)
	return fatal(StageSelfTest, ReasonCPUSelfTest, c.Serial)
}

// TestMemory checks every memory module. Empty slots are skipped. A single
// bad module fails the boot at once; so does a list with no modules.
func (c *CPU) TestMemory(r Reporter, list []*Memory) error {
	found := 0
	for _, m := range list {
		if m == nil {
			continue
		}
		if !m.Valid(models.DeviceMemory) {
			r.Report(m.Serial + " is bad")
			observe(r, m.Identity, models.DeviceMemory, false)
			return fatal(StageMemory, ReasonMemoryDefective, m.Serial)
		}
		r.Report(m.Serial + " is normal")
		observe(r, m.Identity, models.DeviceMemory, true)
		found++
	}
	if found == 0 {
		r.Report("memory does not exist")
		return fatal(StageMemory, ReasonMemoryAbsent, "")
	}
	return nil
}

// TestGraphics checks every graphics card. Bad cards are reported and the
// scan continues; the boot fails only if no good card is found.
func (c *CPU) TestGraphics(r Reporter, list []*GraphicsCard) error {
	if requireOne(r, list, models.DeviceGraphicsCard) == 0 {
		r.Report("graphics card does not exist")
		return fatal(StageGraphics, ReasonGraphicsAbsent, "")
	}
	return nil
}

// TestHardDisks checks every hard disk with the same policy as TestGraphics.
func (c *CPU) TestHardDisks(r Reporter, list []*HardDisk) error {
	if requireOne(r, list, models.DeviceHardDisk) == 0 {
		r.Report("hard disk does not exist")
		return fatal(StageStorage, ReasonStorageAbsent, "")
	}
	return nil
}

// TestUSB reports on every attached USB device. It never fails the boot.
func (c *CPU) TestUSB(r Reporter, list []*USBDevice) {
	for _, u := range list {
		if u == nil {
			continue
		}
		ok := u.Valid(models.DeviceUSB)
		r.Report(fmt.Sprintf("USB device %s is %s", u.Serial, condition(ok)))
		observe(r, u.Identity, models.DeviceUSB, ok)
	}
}

// requireOne reports on each non-empty entry and returns how many were good.
func requireOne[T identified](r Reporter, list []T, expected models.DeviceType) int {
	found := 0
	for _, d := range list {
		id := d.identity()
		if id == nil {
			continue
		}
		ok := id.Valid(expected)
		r.Report(id.Serial + " is " + condition(ok))
		observe(r, *id, expected, ok)
		if ok {
			found++
		}
	}
	return found
}

func condition(ok bool) string {
	if ok {
		return "normal"
	}
	return "bad"
}
