package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics observes backend calls. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the backend request histogram on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resumeview_backend_request_duration_seconds",
				Help:    "Duration of calls to the resume-analysis backend.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation", "outcome"},
		),
	}
	if err := reg.Register(m.requestDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}
