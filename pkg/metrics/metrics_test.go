package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.BatchStarted()
	m.CredentialCheckFailed()
	m.JobsSubmitted(3, 2)
	m.QueryFinished(nil)
	m.QueryFinished(errors.New("boom"))
	m.QueryFinished(errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.batchesStarted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.credentialCheckFailures))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.jobSubmissions.WithLabelValues("success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.jobSubmissions.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.queries.WithLabelValues("success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.queries.WithLabelValues("failure")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.BatchStarted()
		m.CredentialCheckFailed()
		m.JobsSubmitted(1, 1)
		m.QueryFinished(nil)
	})
}
