package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xor-shift/xsrng/common"
)

func TestMonitorHistogramFollowsRange(t *testing.T) {
	m := newMonitor()

	require.NoError(t, m.Observe(common.DrawBatch{Order: 0, Request: common.DrawRequest{Min: 0, Max: 3, Count: 4}, Values: []int{0, 1, 2, 2}}))
	require.NoError(t, m.Observe(common.DrawBatch{Order: 1, Request: common.DrawRequest{Min: 0, Max: 3, Count: 2}, Values: []int{0, 0}}))

	s := m.Snapshot()
	require.NotNil(t, s.Histogram)
	assert.Equal(t, []int{3, 1, 2}, s.Histogram.Counts)
	assert.Equal(t, uint(1), s.LastBatch.Order)

	require.NoError(t, m.Observe(common.DrawBatch{Order: 2, Request: common.DrawRequest{Min: 5, Max: 7, Count: 1}, Values: []int{6}}))
	assert.Equal(t, []int{0, 1}, m.Snapshot().Histogram.Counts)

	require.NoError(t, m.Observe(common.DrawBatch{Order: 3, Request: common.DrawRequest{Min: 0, Max: 1 << 20, Count: 1}, Values: []int{12345}}))
	assert.Nil(t, m.Snapshot().Histogram)
}

func TestDataEndpoint(t *testing.T) {
	m := newMonitor()
	require.NoError(t, m.Observe(common.DrawBatch{SessionID: 4, Request: common.DrawRequest{Min: 0, Max: 2, Count: 2}, Values: []int{0, 1}}))

	app := newApp(m)
	require.NoError(t, app.Build())

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint(4), got.LastBatch.SessionID)
	assert.Equal(t, []int{1, 1}, got.Histogram.Counts)
	assert.Zero(t, got.Deviation)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, "OK", rec.Body.String())
}
