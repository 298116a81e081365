package inflation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SpendSmart/internal/cache"
	"SpendSmart/internal/metrics"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// FREDFetcher reads the latest annual inflation rate from a FRED series.
type FREDFetcher struct {
	BaseURL  string
	SeriesID string
	Client   *http.Client
	Cache    cache.Cache
	TTL      time.Duration
	Metrics  *metrics.Metrics

	breaker *gobreaker.CircuitBreaker
}

// NewFREDFetcher creates a fetcher for seriesID with optional proxy support.
func NewFREDFetcher(baseURL, seriesID, proxyURL string, timeout time.Duration) *FREDFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &FREDFetcher{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		SeriesID: seriesID,
		Client:   &http.Client{Timeout: timeout, Transport: transport},
		breaker:  newBreaker("fred"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
	}
	return gobreaker.NewCircuitBreaker(st)
}

// InflationRate returns the most recent observation of the series, in percent.
func (f *FREDFetcher) InflationRate(ctx context.Context) (float64, error) {
	key := "inflation:fred:" + f.SeriesID
	if f.Cache != nil {
		if b, ok := f.Cache.Get(ctx, key); ok {
			if v, err := strconv.ParseFloat(string(b), 64); err == nil {
				f.Metrics.CacheLookup("inflation", true)
				return v, nil
			}
		}
		f.Metrics.CacheLookup("inflation", false)
	}

	v, err := f.breaker.Execute(func() (interface{}, error) {
		return f.fetch(ctx)
	})
	if err != nil {
		f.Metrics.FetchError("fred")
		return 0, fmt.Errorf("fred %s: %w", f.SeriesID, err)
	}
	rate := v.(float64)
	if f.Cache != nil {
		f.Cache.Set(ctx, key, []byte(strconv.FormatFloat(rate, 'g', -1, 64)), f.TTL)
	}
	return rate, nil
}

func (f *FREDFetcher) fetch(ctx context.Context) (float64, error) {
	u := fmt.Sprintf("%s/graph/fredgraph.csv?id=%s", f.BaseURL, url.QueryEscape(f.SeriesID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download: received status %s", resp.Status)
	}
	return latestValue(resp.Body)
}

// ErrNoObservation is returned when a series holds no numeric value.
var ErrNoObservation = errors.New("series has no observation")

// latestValue parses a fredgraph CSV (date,value rows, oldest first) and
// returns the last numeric value. FRED marks missing values with ".".
func latestValue(r io.Reader) (float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}
	for i := len(records) - 1; i >= 1; i-- {
		rec := records[i]
		if len(rec) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			continue
		}
		return v, nil
	}
	return 0, ErrNoObservation
}

// Static is a fixed-answer provider for offline runs and tests.
type Static struct {
	Rate float64
	Err  error
}

func (s Static) InflationRate(context.Context) (float64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Rate, nil
}
