package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tphummel/lab_post/internal/models"
	"github.com/tphummel/lab_post/internal/post"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_post_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lab_post_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lab_post_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})

	bootsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_post_boots_total",
			Help: "Boot runs executed by this process, by outcome and failure reason.",
		},
		[]string{"outcome", "reason"},
	)

	bootDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lab_post_boot_duration_seconds",
		Help:    "Wall time of a boot run from standby to its final state.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	deviceChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_post_device_checks_total",
			Help: "Devices checked by the CPU, by the category tested and result.",
		},
		[]string{"type", "result"},
	)
)

// BootDB is the subset of db.DB needed to collect journal metrics.
type BootDB interface {
	CountByOutcome() (map[string]int, error)
}

// journalCollector is a custom Prometheus collector that queries the database
// on each scrape to report recorded boot runs broken down by outcome.
type journalCollector struct {
	db       BootDB
	runsDesc *prometheus.Desc
}

func (c *journalCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runsDesc
}

func (c *journalCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.db.CountByOutcome()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.runsDesc, err)
		return
	}
	for outcome, n := range counts {
		ch <- prometheus.MustNewConstMetric(
			c.runsDesc,
			prometheus.GaugeValue,
			float64(n),
			outcome,
		)
	}
}

func newJournalCollector(db BootDB) *journalCollector {
	return &journalCollector{
		db: db,
		runsDesc: prometheus.NewDesc(
			"lab_post_recorded_runs",
			"Boot runs stored in the journal, partitioned by outcome.",
			[]string{"outcome"},
			nil,
		),
	}
}

// Register registers all metrics with the default Prometheus registry.
// Call once at startup after the database is initialised.
func Register(db BootDB) {
	prometheus.MustRegister(
		// Standard Go runtime and process metrics
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := RegisterWith(prometheus.DefaultRegisterer, db); err != nil {
		panic(err)
	}
}

// RegisterWith registers the service and boot metrics with reg.
func RegisterWith(reg prometheus.Registerer, db BootDB) error {
	for _, c := range []prometheus.Collector{
		// HTTP service metrics
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		// Boot metrics
		bootsTotal,
		bootDuration,
		deviceChecksTotal,
		newJournalCollector(db),
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveBoot records the outcome and duration of a finished run.
func ObserveBoot(run *models.BootRun) {
	bootsTotal.WithLabelValues(run.Outcome, run.Reason).Inc()
	if !run.FinishedAt.IsZero() {
		bootDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	}
}

// DeviceObserver counts device checks. It satisfies post.DeviceObserver.
type DeviceObserver struct{}

// DeviceChecked implements post.DeviceObserver.
func (DeviceObserver) DeviceChecked(_ post.Identity, category models.DeviceType, ok bool) {
	result := "bad"
	if ok {
		result = "normal"
	}
	deviceChecksTotal.WithLabelValues(string(category), result).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics.
// pattern should be the route pattern string (e.g. "/api/v1/boots/{id}")
// so the path label has bounded cardinality.
func Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}
