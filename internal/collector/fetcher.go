package collector

import (
	"context"
	"time"

	"SpendSmart/internal/model"
)

// Fetcher defines the interface for fetching daily closing prices.
type Fetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error)
	Name() string
}
