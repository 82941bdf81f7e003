package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "judolscan"

// Collector records check, step and HTTP metrics. A nil *Collector
// discards everything, so callers never need to check.
type Collector struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	stepsTotal    *prometheus.CounterVec
	keywordsFound *prometheus.HistogramVec
	classifierUp  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
}

// NewCollector registers the judolscan metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Checks completed by modality and outcome",
			},
			[]string{"modality", "outcome"},
		),
		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "check_duration_seconds",
				Help:      "Check duration in seconds",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"modality"},
		),
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_steps_total",
				Help:      "Extraction step outcomes",
			},
			[]string{"step", "state"},
		),
		keywordsFound: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "keywords_found",
				Help:      "Lexicon terms matched per check",
				Buckets:   []float64{0, 1, 2, 3, 4, 5, 10, 20},
			},
			[]string{"modality"},
		),
		classifierUp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "classifier_available",
				Help:      "1 when the statistical classifier is reachable, 0 in degraded mode",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "API requests by route and status class",
			},
			[]string{"route", "status"},
		),
	}
}

// RecordCheck records a finished check. outcome is the verdict status or "error".
func (c *Collector) RecordCheck(modality, outcome string, keywords int, duration time.Duration) {
	if c == nil {
		return
	}
	c.checksTotal.WithLabelValues(modality, outcome).Inc()
	c.checkDuration.WithLabelValues(modality).Observe(duration.Seconds())
	if outcome != OutcomeError {
		c.keywordsFound.WithLabelValues(modality).Observe(float64(keywords))
	}
}

// RecordStep records one extraction step outcome
func (c *Collector) RecordStep(step, state string) {
	if c == nil {
		return
	}
	c.stepsTotal.WithLabelValues(step, state).Inc()
}

// SetClassifierAvailable reports the classifier state
func (c *Collector) SetClassifierAvailable(ok bool) {
	if c == nil {
		return
	}
	if ok {
		c.classifierUp.Set(1)
	} else {
		c.classifierUp.Set(0)
	}
}

// RecordHTTPRequest records an API request
func (c *Collector) RecordHTTPRequest(route string, status int) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, statusClass(status)).Inc()
}

// OutcomeError labels checks that returned an error
const OutcomeError = "error"

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
