package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"SpendSmart/internal/calculator"
	"SpendSmart/internal/config"
	"SpendSmart/internal/metrics"
	"SpendSmart/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	t.Setenv("DATA_WINDOW_START", "2023-01-01")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	a, err := newApp(cfg, true, m)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(newMux(a.engine.Calculate, reg))
	t.Cleanup(srv.Close)
	return srv, m
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/calculate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCalculateEndpoint(t *testing.T) {
	srv, m := newTestServer(t)

	resp := post(t, srv.URL, `{"monthly_investment":1000,"growth_rate":5,"risk_free_rate":0.02,
		"goals":[{"name":"car","target":20000,"years":2}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res model.CalculationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Len(t, res.OptimalWeights, 4)
	require.Len(t, res.GoalsStatus, 1)
	assert.Equal(t, "car", res.GoalsStatus[0].Goal.Name)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CalculationDuration))

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `spendsmart_calculations_total{outcome="ok"} 1`)
}

func TestCalculateEndpoint_Errors(t *testing.T) {
	srv, m := newTestServer(t)

	resp := post(t, srv.URL, `{"monthly_investment":0,"goals":[{"target":1,"years":1}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Contains(t, e["error"], "monthly_investment")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Calculations.WithLabelValues("invalid")))

	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL, `{not json`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL, `{"monthly":1}`).StatusCode)

	get, err := http.Get(srv.URL + "/calculate")
	require.NoError(t, err)
	get.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestCalculateHandler_DataUnavailable(t *testing.T) {
	h := calculateHandler(func(context.Context, model.CalculationRequest) (*model.CalculationResult, error) {
		return nil, calculator.ErrDataUnavailable
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/calculate", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
