package post

import (
	"fmt"

	"github.com/tphummel/lab_post/internal/models"
)

// Display renders text handed to it by a graphics card.
type Display struct {
	Identity
	out Reporter
}

// NewDisplay returns a monitor that renders to out.
func NewDisplay(serial string, out Reporter) *Display {
	return &Display{Identity: Identity{Serial: serial, Type: models.DeviceMonitor}, out: out}
}

// Render shows text.
func (d *Display) Render(text string) {
	d.out.Report(text)
}

// ShowImage shows an image signal relayed by g.
func (d *Display) ShowImage(g *GraphicsCard, signal string) {
	d.out.Report(g.ImageSignal(signal))
}

// ShowStatus renders a device's identity line through g.
func (d *Display) ShowStatus(g *GraphicsCard, label string, id Identity) {
	d.Render(fmt.Sprintf("%s: SerialNumber: %s, DeviceType: %s",
		label, g.SerialNumber(id.Serial), g.DeviceType(string(id.Type))))
}
