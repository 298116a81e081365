package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"SpendSmart/internal/cache"
	"SpendSmart/internal/calculator"
	"SpendSmart/internal/collector"
	"SpendSmart/internal/inflation"
	"SpendSmart/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	collector.MockFetcher
	calls int
}

func (c *countingFetcher) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	c.calls++
	return c.MockFetcher.FetchDailyCloses(ctx, symbol, start, end)
}

type countingInflation struct {
	inflation.Static
	calls int
}

func (c *countingInflation) InflationRate(ctx context.Context) (float64, error) {
	c.calls++
	return c.Static.InflationRate(ctx)
}

func newTestScheduler(f collector.Fetcher, infl calculator.InflationProvider) *Scheduler {
	col := collector.NewCollector(f, cache.NewMemory(), time.Hour, nil)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewScheduler(context.Background(), col, infl, []string{"A", "B"}, start)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestWarm_FillsPriceCache(t *testing.T) {
	f := &countingFetcher{}
	infl := &countingInflation{Static: inflation.Static{Rate: 4.5}}
	s := newTestScheduler(f, infl)

	require.NoError(t, s.Warm(context.Background()))
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, 1, infl.calls)

	// A calculation for the same day reads from the warmed cache.
	_, err := s.Prices.GetPriceHistory(context.Background(), s.Universe, s.Start, s.now())
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

func TestWarm_Errors(t *testing.T) {
	f := &countingFetcher{MockFetcher: collector.MockFetcher{Err: map[string]error{
		"A": errors.New("down"), "B": errors.New("down"),
	}}}
	s := newTestScheduler(f, nil)
	assert.ErrorIs(t, s.Warm(context.Background()), calculator.ErrDataUnavailable)

	s = newTestScheduler(&countingFetcher{}, inflation.Static{Err: errors.New("fred down")})
	assert.ErrorContains(t, s.RunWarmNow(), "warm inflation")

	s = newTestScheduler(&countingFetcher{}, nil)
	assert.NoError(t, s.RunWarmNow())
}

func TestRegisterWarm(t *testing.T) {
	s := newTestScheduler(&countingFetcher{}, nil)
	require.NoError(t, s.RegisterWarm("0 0 6 * * *"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.RegisterWarm("not a cron"))

	s.Run()
	s.Stop()
}
