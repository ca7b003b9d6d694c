// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromhttpExposure(t *testing.T) {
	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues(LookupHit))
	RecordCacheLookup(LookupHit)
	assert.Equal(t, before+1, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues(LookupHit)))
}

func TestSetOpenConnections(t *testing.T) {
	SetOpenConnections(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(cacheOpenConnections))
	SetOpenConnections(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(cacheOpenConnections))
}

func TestRecordEviction(t *testing.T) {
	before := testutil.ToFloat64(cacheEvictionsTotal.WithLabelValues(EvictIdle))
	RecordEviction(EvictIdle)
	assert.Equal(t, before+1, testutil.ToFloat64(cacheEvictionsTotal.WithLabelValues(EvictIdle)))
}

func TestRecordStatementAndTransaction(t *testing.T) {
	before := testutil.ToFloat64(statementsTotal.WithLabelValues("write", OutcomeFailure))
	RecordStatement("write", OutcomeFailure, 0.01)
	RecordStatementError("SYNTAX_ERROR")
	assert.Equal(t, before+1, testutil.ToFloat64(statementsTotal.WithLabelValues("write", OutcomeFailure)))

	txBefore := testutil.ToFloat64(transactionsTotal.WithLabelValues(TxRollback))
	RecordTransaction(TxRollback)
	assert.Equal(t, txBefore+1, testutil.ToFloat64(transactionsTotal.WithLabelValues(TxRollback)))
}

func TestRecordRepairedSegments_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(toolRepairedSegmentsTotal.WithLabelValues("test_tool"))
	RecordRepairedSegments("test_tool", 0)
	RecordRepairedSegments("test_tool", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(toolRepairedSegmentsTotal.WithLabelValues("test_tool")))
}

func histogramSamples(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	require.True(t, ok)
	out := &dto.Metric{}
	require.NoError(t, m.Write(out))
	return out.GetHistogram().GetSampleCount()
}

func TestRecordToolCallObservesDuration(t *testing.T) {
	before := histogramSamples(t, toolCallDuration.WithLabelValues("select_data"))
	RecordToolCall("select_data", OutcomeSuccess, 0.002)
	RecordToolCall("select_data", OutcomeFailure, 0.004)
	assert.Equal(t, before+2, histogramSamples(t, toolCallDuration.WithLabelValues("select_data")))
}

func TestObserveOpen(t *testing.T) {
	before := histogramSamples(t, cacheOpenDuration)
	ObserveOpen(0.01)
	assert.Equal(t, before+1, histogramSamples(t, cacheOpenDuration))
}
