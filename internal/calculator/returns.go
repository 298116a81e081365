package calculator

import (
	"errors"
	"math"

	"SpendSmart/internal/model"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// TradingDays is the number of trading days used to annualize daily statistics.
const TradingDays = 252

// ErrDataUnavailable is returned when the price table holds no usable history.
var ErrDataUnavailable = errors.New("no price data available")

// DailyReturns computes the simple daily returns of a close series.
// The result has the same length as closes; index 0 and every index where
// either price is missing hold NaN.
func DailyReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if model.IsGap(prev) || model.IsGap(cur) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (cur - prev) / prev
	}
	return out
}

// EstimateReturns derives annualized expected returns and covariance from a price table.
// Assets with fewer than two defined daily returns are left out of the model.
func EstimateReturns(table *model.PriceTable) (*model.ReturnsModel, error) {
	if table.Rows() == 0 {
		return nil, ErrDataUnavailable
	}

	var assets []string
	daily := make(map[string][]float64, len(table.Assets))
	for _, a := range table.Assets {
		r := DailyReturns(table.Column(a))
		if len(defined(r)) < 2 {
			log.Warn().Str("asset", a).Msg("not enough price history, asset left out of returns model")
			continue
		}
		assets = append(assets, a)
		daily[a] = r
	}
	if len(assets) == 0 {
		return nil, ErrDataUnavailable
	}

	m := &model.ReturnsModel{
		Assets:          assets,
		ExpectedReturns: make(map[string]float64, len(assets)),
		Covariance:      make([][]float64, len(assets)),
	}
	for i, a := range assets {
		mean := stat.Mean(defined(daily[a]), nil)
		m.ExpectedReturns[a] = math.Pow(1+mean, TradingDays) - 1
		m.Covariance[i] = make([]float64, len(assets))
	}
	for i := range assets {
		for j := i; j < len(assets); j++ {
			c := pairwiseCovariance(daily[assets[i]], daily[assets[j]]) * TradingDays
			m.Covariance[i][j] = c
			m.Covariance[j][i] = c
		}
	}
	return m, nil
}

// RealizedReturns computes each asset's total compounded return over the
// window, annualized by the number of rows in the table.
func RealizedReturns(table *model.PriceTable) (map[string]float64, error) {
	if table.Rows() == 0 {
		return nil, ErrDataUnavailable
	}
	out := make(map[string]float64, len(table.Assets))
	periods := float64(table.Rows())
	for _, a := range table.Assets {
		growth := 1.0
		for _, r := range defined(DailyReturns(table.Column(a))) {
			growth *= 1 + r
		}
		out[a] = math.Pow(growth, TradingDays/periods) - 1
	}
	return out, nil
}

// pairwiseCovariance is the sample covariance over days where both series are defined.
func pairwiseCovariance(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return 0
	}
	return stat.Covariance(xs, ys, nil)
}

func defined(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}
