// Package market holds the canned market data behind the dashboard endpoints
// and the mock provider of the get_series tool.
package market

import (
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MockSource is the source label attached to generated data.
const MockSource = "Mock Data"

// Point is one observation of a monthly series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// baselines are the starting levels of known metrics; anything else starts at DefaultBaseline.
var baselines = map[string]float64{
	"CPI_YOY":      2.0,
	"CORE_CPI_YOY": 1.8,
	"POLICY_RATE":  2.5,
	"UNEMPLOYMENT": 3.5,
	"GDP_YOY":      2.5,
	"USD_KRW":      1300,
}

// DefaultBaseline is used for metrics without a known level.
const DefaultBaseline = 100.0

// Baseline returns the starting level for metric and whether it is a known metric.
func Baseline(metric string) (float64, bool) {
	v, ok := baselines[strings.ToUpper(metric)]
	if !ok {
		return DefaultBaseline, false
	}
	return v, true
}

// MockSeries generates one point per month from start's month through end's
// month: baseline plus a 0.2/year drift plus bounded noise. The noise for a
// given metric and month is fixed, so the same request always yields the same
// numbers.
func MockSeries(metric string, start, end time.Time) []Point {
	base, _ := Baseline(metric)
	first := monthStart(start)
	last := monthStart(end)

	points := make([]Point, 0, 40)
	for cur := first; !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		trend := cur.Sub(first).Hours() / 24 / 365 * 0.2
		value := base + trend + noise(metric, cur, 0.3)
		points = append(points, Point{Date: cur.Format("2006-01"), Value: round2(value)})
	}
	return points
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// noise returns a value in [-amplitude, amplitude) seeded by metric and month.
func noise(metric string, month time.Time, amplitude float64) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToUpper(metric)))
	_, _ = h.Write([]byte(month.Format("2006-01")))
	r := rand.New(rand.NewPCG(h.Sum64(), 0x9e3779b97f4a7c15))
	return (r.Float64()*2 - 1) * amplitude
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
