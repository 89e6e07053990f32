package post

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tphummel/lab_post/internal/models"
)

// Reporter receives human-readable status messages during a boot.
type Reporter interface {
	Report(msg string)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(msg string)

// Report calls f(msg).
func (f ReporterFunc) Report(msg string) { f(msg) }

// Discard drops every message.
var Discard Reporter = ReporterFunc(func(string) {})

// SlogReporter reports each message as a debug record on logger.
func SlogReporter(logger *slog.Logger) Reporter {
	return ReporterFunc(func(msg string) {
		logger.Debug(msg)
	})
}

// WriterReporter writes each message as a line to w.
func WriterReporter(w io.Writer) Reporter {
	return ReporterFunc(func(msg string) {
		fmt.Fprintln(w, msg)
	})
}

// DeviceObserver is notified of every device the CPU checks, with the
// category it was tested as. A Reporter may also implement it; the Sequencer
// then notifies both the Reporter and Options.Observer.
type DeviceObserver interface {
	DeviceChecked(id Identity, category models.DeviceType, ok bool)
}

func observe(r Reporter, id Identity, category models.DeviceType, ok bool) {
	if o, isObserver := r.(DeviceObserver); isObserver {
		o.DeviceChecked(id, category, ok)
	}
}
