package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMustRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		MustRegister()
		MustRegister()
	})
}

func TestCounters_NormalizeLabels(t *testing.T) {
	before := testutil.ToFloat64(inboundMessages.WithLabelValues("handled"))
	IncInbound(" Handled ")
	assert.Equal(t, before+1, testutil.ToFloat64(inboundMessages.WithLabelValues("handled")))

	before = testutil.ToFloat64(dialogTransitions.WithLabelValues("none", "brand_select"))
	IncTransition("NONE", "brand_select")
	assert.Equal(t, before+1, testutil.ToFloat64(dialogTransitions.WithLabelValues("none", "brand_select")))

	before = testutil.ToFloat64(dialogErrors.WithLabelValues("timeout"))
	IncDialogError("timeout")
	assert.Equal(t, before+1, testutil.ToFloat64(dialogErrors.WithLabelValues("timeout")))

	before = testutil.ToFloat64(outboundFailures)
	IncOutboundFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(outboundFailures))
}

func TestObserveCatalogFetch(t *testing.T) {
	before := testutil.CollectAndCount(catalogFetchMs)
	ObserveCatalogFetch("list_rows_metrics_test", 120*time.Millisecond, true)
	assert.Equal(t, before+1, testutil.CollectAndCount(catalogFetchMs))
}
