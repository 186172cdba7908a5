package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/comigor/econlux-go/internal/market"
)

// DefaultYahooSymbols maps market metrics to Yahoo Finance tickers.
var DefaultYahooSymbols = map[string]string{
	"USD_KRW": "KRW=X",
	"KOSPI":   "^KS11",
	"SPX":     "^GSPC",
}

// YahooProvider serves market prices as month-end closes.
type YahooProvider struct {
	symbols map[string]string
}

func NewYahooProvider(symbols map[string]string) *YahooProvider {
	if symbols == nil {
		symbols = DefaultYahooSymbols
	}
	return &YahooProvider{symbols: symbols}
}

func (p *YahooProvider) Name() string { return "Yahoo Finance" }

func (p *YahooProvider) Supports(metric string) bool {
	_, ok := p.symbols[strings.ToUpper(metric)]
	return ok
}

func (p *YahooProvider) Fetch(ctx context.Context, metric string, start, end time.Time) ([]market.Point, error) {
	symbol, ok := p.symbols[strings.ToUpper(metric)]
	if !ok {
		return nil, fmt.Errorf("yahoo: unknown metric %s", metric)
	}

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	var points []market.Point
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar := iter.Bar()
		month := time.Unix(int64(bar.Timestamp), 0).UTC().Format("2006-01")
		price, _ := bar.Close.Round(2).Float64()
		if n := len(points); n > 0 && points[n-1].Date == month {
			points[n-1].Value = price
			continue
		}
		points = append(points, market.Point{Date: month, Value: price})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	return points, nil
}
