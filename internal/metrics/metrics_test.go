package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tphummel/lab_post/internal/models"
	"github.com/tphummel/lab_post/internal/post"
)

type fakeDB struct {
	counts map[string]int
	err    error
}

func (f fakeDB) CountByOutcome() (map[string]int, error) { return f.counts, f.err }

func TestJournalCollector(t *testing.T) {
	c := newJournalCollector(fakeDB{counts: map[string]int{"opened": 3, "failed": 1}})

	expected := `
# HELP lab_post_recorded_runs Boot runs stored in the journal, partitioned by outcome.
# TYPE lab_post_recorded_runs gauge
lab_post_recorded_runs{outcome="failed"} 1
lab_post_recorded_runs{outcome="opened"} 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected collector output: %v", err)
	}
}

func TestJournalCollector_DBError(t *testing.T) {
	c := newJournalCollector(fakeDB{err: errors.New("db down")})
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := reg.Gather(); err == nil {
		t.Error("expected gather error when the database fails")
	}
}

func TestRegisterWith(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterWith(reg, fakeDB{counts: map[string]int{}}); err != nil {
		t.Fatalf("RegisterWith: %v", err)
	}
	if err := RegisterWith(reg, fakeDB{}); err == nil {
		t.Error("expected error registering twice with the same registry")
	}
}

func TestObserveBoot(t *testing.T) {
	before := testutil.ToFloat64(bootsTotal.WithLabelValues(models.OutcomeFailed, "power_too_low"))

	start := time.Now()
	ObserveBoot(&models.BootRun{
		Outcome:    models.OutcomeFailed,
		Reason:     "power_too_low",
		StartedAt:  start,
		FinishedAt: start.Add(time.Millisecond),
	})

	after := testutil.ToFloat64(bootsTotal.WithLabelValues(models.OutcomeFailed, "power_too_low"))
	if after != before+1 {
		t.Errorf("boots_total: got %v, want %v", after, before+1)
	}
}

func TestDeviceObserver(t *testing.T) {
	normal := deviceChecksTotal.WithLabelValues("USB", "normal")
	bad := deviceChecksTotal.WithLabelValues("USB", "bad")
	n0, b0 := testutil.ToFloat64(normal), testutil.ToFloat64(bad)

	var obs post.DeviceObserver = DeviceObserver{}
	obs.DeviceChecked(post.NewUSBDevice("Mouse1").Identity, models.DeviceUSB, true)
	obs.DeviceChecked(post.NewUSBDevice("").Identity, models.DeviceUSB, false)

	if got := testutil.ToFloat64(normal); got != n0+1 {
		t.Errorf("normal: got %v, want %v", got, n0+1)
	}
	if got := testutil.ToFloat64(bad); got != b0+1 {
		t.Errorf("bad: got %v, want %v", got, b0+1)
	}
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/boots/{id}", "404")
	before := testutil.ToFloat64(counter)

	h := Middleware("/api/v1/boots/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/boots/x", nil))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("requests_total: got %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Errorf("in flight: got %v, want 0", got)
	}
}

func TestDeviceObserver_CountsTestedCategory(t *testing.T) {
	graphicsBad := deviceChecksTotal.WithLabelValues(string(models.DeviceGraphicsCard), "bad")
	diskBad := deviceChecksTotal.WithLabelValues(string(models.DeviceHardDisk), "bad")
	g0, d0 := testutil.ToFloat64(graphicsBad), testutil.ToFloat64(diskBad)

	mislabeled := post.NewGraphicsCard("GraphicsCard9")
	mislabeled.Type = models.DeviceHardDisk

	opts := post.DefaultOptions()
	opts.Observer = DeviceObserver{}
	opts.Fixture = func() post.Devices {
		d := post.DefaultFixture()
		d.Graphics = []*post.GraphicsCard{nil, mislabeled}
		return d
	}
	if _, err := post.Boot(context.Background(), opts); post.ReasonOf(err) != post.ReasonGraphicsAbsent {
		t.Fatalf("boot: got %v, want graphics_absent", err)
	}

	if got := testutil.ToFloat64(graphicsBad); got != g0+1 {
		t.Errorf("GraphicsCard bad: got %v, want %v", got, g0+1)
	}
	if got := testutil.ToFloat64(diskBad); got != d0 {
		t.Errorf("HardDisk bad: got %v, want %v (storage never ran)", got, d0)
	}
}
