package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts submission outcomes. A nil *Metrics records nothing.
type Metrics struct {
	uploads         *prometheus.CounterVec
	archiveFailures prometheus.Counter
}

// NewMetrics registers the submission counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resumeview_uploads_total",
				Help: "Finished resume submissions by outcome.",
			},
			[]string{"outcome"},
		),
		archiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resumeview_archive_failures_total",
			Help: "Analysed resumes that could not be written to the archive.",
		}),
	}
	for _, c := range []prometheus.Collector{m.uploads, m.archiveFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) upload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) archiveFailed() {
	if m == nil {
		return
	}
	m.archiveFailures.Inc()
}
