package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sqljobrunner"

// Metrics holds process counters for both modes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	batchesStarted          prometheus.Counter
	credentialCheckFailures prometheus.Counter
	jobSubmissions          *prometheus.CounterVec
	queries                 *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		batchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_started_total",
			Help:      "Number of job submission rounds started",
		}),
		credentialCheckFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_check_failures_total",
			Help:      "Number of rounds skipped because the credential secret could not be read",
		}),
		jobSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_submissions_total",
			Help:      "Number of job creation calls by outcome",
		}, []string{"outcome"}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Number of scalar queries by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) BatchStarted() {
	if m == nil {
		return
	}
	m.batchesStarted.Inc()
}

func (m *Metrics) CredentialCheckFailed() {
	if m == nil {
		return
	}
	m.credentialCheckFailures.Inc()
}

func (m *Metrics) JobsSubmitted(succeeded, failed int) {
	if m == nil {
		return
	}
	m.jobSubmissions.WithLabelValues("success").Add(float64(succeeded))
	m.jobSubmissions.WithLabelValues("failure").Add(float64(failed))
}

func (m *Metrics) QueryFinished(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.queries.WithLabelValues("failure").Inc()
		return
	}
	m.queries.WithLabelValues("success").Inc()
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
