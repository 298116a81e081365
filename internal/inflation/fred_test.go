package inflation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SpendSmart/internal/cache"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fredCSV = `observation_date,FPCPITOTLZGIND
2020-01-01,6.62343677628987
2021-01-01,5.13140747176489
2022-01-01,6.69903414264718
2023-01-01,5.64914925552158
2024-01-01,.
`

func TestLatestValue(t *testing.T) {
	v, err := latestValue(strings.NewReader(fredCSV))
	require.NoError(t, err)
	assert.Equal(t, 5.64914925552158, v)

	_, err = latestValue(strings.NewReader("DATE,X\n2024-01-01,.\n"))
	assert.ErrorIs(t, err, ErrNoObservation)

	_, err = latestValue(strings.NewReader("DATE,X\n"))
	assert.ErrorIs(t, err, ErrNoObservation)
}

func TestFREDFetcher_InflationRate(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/graph/fredgraph.csv", r.URL.Path)
		assert.Equal(t, "FPCPITOTLZGIND", r.URL.Query().Get("id"))
		w.Write([]byte(fredCSV))
	}))
	defer srv.Close()

	f := NewFREDFetcher(srv.URL, "FPCPITOTLZGIND", "", 5*time.Second)
	f.Cache = cache.NewMemory()
	f.TTL = time.Hour

	v, err := f.InflationRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.64914925552158, v)

	v, err = f.InflationRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.64914925552158, v)
	assert.Equal(t, 1, calls, "second call served from cache")
}

func TestFREDFetcher_BreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFREDFetcher(srv.URL, "FPCPITOTLZGIND", "", 5*time.Second)
	for i := 0; i < 3; i++ {
		_, err := f.InflationRate(context.Background())
		assert.ErrorContains(t, err, "503")
	}
	_, err := f.InflationRate(context.Background())
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, 3, calls)
}

func TestStatic(t *testing.T) {
	v, err := Static{Rate: 3.1}.InflationRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.1, v)

	_, err = Static{Err: errors.New("down")}.InflationRate(context.Background())
	assert.Error(t, err)
}
