package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"SpendSmart/internal/cache"
	"SpendSmart/internal/metrics"
	"SpendSmart/internal/model"

	"github.com/rs/zerolog/log"
)

// MockFetcher returns deterministic synthetic closes for development and testing.
// Series overrides the generated data per symbol and Err forces a failure.
type MockFetcher struct {
	Drift  map[string]float64 // annual drift per symbol, default 0.08
	Series map[string][]model.PricePoint
	Err    map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	if err, ok := m.Err[symbol]; ok {
		return nil, err
	}
	if s, ok := m.Series[symbol]; ok {
		return s, nil
	}
	drift := 0.08
	if d, ok := m.Drift[symbol]; ok {
		drift = d
	}
	return generateMockCloses(symbol, drift, start, end), nil
}

// generateMockCloses builds weekday closes with a symbol-specific wobble so
// that generated series are not perfectly correlated.
func generateMockCloses(symbol string, drift float64, start, end time.Time) []model.PricePoint {
	var seed float64
	for _, r := range symbol {
		seed += float64(r)
	}
	freq := 0.05 + math.Mod(seed, 17)/40
	base := 50 + math.Mod(seed, 100)

	var points []model.PricePoint
	i := 0
	for d := day(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		trend := math.Pow(1+drift, float64(i)/252)
		wobble := 1 + 0.02*math.Sin(float64(i)*freq+seed)
		points = append(points, model.PricePoint{Time: d, Close: base * trend * wobble})
		i++
	}
	return points
}

// Collector fetches price history for a set of assets and aligns it into a table.
type Collector struct {
	Fetcher Fetcher
	Cache   cache.Cache
	TTL     time.Duration
	Metrics *metrics.Metrics
}

// NewCollector creates a new Collector. c may be nil to disable caching.
func NewCollector(fetcher Fetcher, c cache.Cache, ttl time.Duration, m *metrics.Metrics) *Collector {
	return &Collector{Fetcher: fetcher, Cache: c, TTL: ttl, Metrics: m}
}

// GetPriceHistory returns the aligned closes of tickers between start and end.
// A ticker that cannot be fetched is logged and left out of the table, so the
// result may hold fewer columns than requested, or none at all.
func (c *Collector) GetPriceHistory(ctx context.Context, tickers []string, start, end time.Time) (*model.PriceTable, error) {
	var series []model.PriceSeries
	for _, sym := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		points, err := c.fetch(ctx, sym, start, end)
		if err != nil {
			log.Warn().Err(err).Str("symbol", sym).Str("source", c.Fetcher.Name()).Msg("price history unavailable")
			c.Metrics.FetchError(c.Fetcher.Name())
			continue
		}
		if len(points) == 0 {
			log.Warn().Str("symbol", sym).Msg("price history is empty")
			continue
		}
		series = append(series, model.PriceSeries{Symbol: sym, Points: points})
	}
	return AlignSeries(series), nil
}

func (c *Collector) fetch(ctx context.Context, sym string, start, end time.Time) ([]model.PricePoint, error) {
	key := fmt.Sprintf("prices:%s:%s:%s:%s", c.Fetcher.Name(), sym, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
	if c.Cache != nil {
		if b, ok := c.Cache.Get(ctx, key); ok {
			var points []model.PricePoint
			if err := json.Unmarshal(b, &points); err == nil {
				c.Metrics.CacheLookup("prices", true)
				return points, nil
			}
		}
		c.Metrics.CacheLookup("prices", false)
	}

	points, err := c.Fetcher.FetchDailyCloses(ctx, sym, start, end)
	if err != nil {
		return nil, err
	}
	if c.Cache != nil && len(points) > 0 {
		if b, err := json.Marshal(points); err == nil {
			c.Cache.Set(ctx, key, b, c.TTL)
		}
	}
	return points, nil
}

// AlignSeries merges series into a table over the union of their dates.
// Dates where an asset has no observation are left as gaps.
func AlignSeries(series []model.PriceSeries) *model.PriceTable {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	assets := make([]string, 0, len(series))
	for _, s := range series {
		assets = append(assets, s.Symbol)
		for _, p := range s.Points {
			d := day(p.Time)
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}
	table := model.NewPriceTable(dates, assets)
	for _, s := range series {
		col := table.Closes[s.Symbol]
		for _, p := range s.Points {
			if model.IsGap(p.Close) {
				continue
			}
			col[index[day(p.Time)]] = p.Close
		}
	}
	return table
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
