package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/aretw0/sapling/pkg/domain"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ExecutionFinished("succeeded")
	m.ExecutionFinished("succeeded")
	m.ExecutionFinished("failed")
	m.ActionCommitted(domain.ActionCreate)
	m.TaskObserved("package-install", 50*time.Millisecond, nil)
	m.TaskObserved("repo-init", time.Second, errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.executions.WithLabelValues("succeeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.executions.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.actions.WithLabelValues("create")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.taskFailures.WithLabelValues("repo-init")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.taskFailures.WithLabelValues("package-install")))
}
