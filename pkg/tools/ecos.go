package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/comigor/econlux-go/internal/market"
)

// ECOSProvider reads statistics from the Bank of Korea ECOS open API.
type ECOSProvider struct {
	client *resty.Client
	apiKey string
	series map[string]ecosSeries
}

type ecosSeries struct {
	stat  string
	cycle string
	item  string
}

type ecosResponse struct {
	StatisticSearch *struct {
		Rows []struct {
			Time  string `json:"TIME"`
			Value string `json:"DATA_VALUE"`
		} `json:"row"`
	} `json:"StatisticSearch"`
	Result *struct {
		Code    string `json:"CODE"`
		Message string `json:"MESSAGE"`
	} `json:"RESULT"`
}

// NewECOSProvider maps metric names to "STAT/CYCLE/ITEM" codes, for example
// POLICY_RATE -> "722Y001/M/0101000". Metric names match case-insensitively.
func NewECOSProvider(baseURL, apiKey string, codes map[string]string) (*ECOSProvider, error) {
	series := make(map[string]ecosSeries, len(codes))
	for metric, code := range codes {
		parts := strings.Split(code, "/")
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("ecos series %s: want STAT/CYCLE/ITEM, got %q", metric, code)
		}
		switch parts[1] {
		case "M", "Q", "A":
		default:
			return nil, fmt.Errorf("ecos series %s: unsupported cycle %q", metric, parts[1])
		}
		series[strings.ToUpper(metric)] = ecosSeries{stat: parts[0], cycle: parts[1], item: parts[2]}
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	return &ECOSProvider{client: client, apiKey: apiKey, series: series}, nil
}

func (p *ECOSProvider) Name() string { return "한국은행 ECOS" }

func (p *ECOSProvider) Supports(metric string) bool {
	_, ok := p.series[strings.ToUpper(metric)]
	return ok
}

func (p *ECOSProvider) Fetch(ctx context.Context, metric string, start, end time.Time) ([]market.Point, error) {
	s, ok := p.series[strings.ToUpper(metric)]
	if !ok {
		return nil, fmt.Errorf("ecos: unknown metric %s", metric)
	}

	path := fmt.Sprintf("/StatisticSearch/%s/json/kr/1/1000/%s/%s/%s/%s/%s",
		p.apiKey, s.stat, s.cycle, ecosPeriod(start, s.cycle), ecosPeriod(end, s.cycle), s.item)
	resp, err := p.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, p.requestError(err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ecos: unexpected status %d", resp.StatusCode())
	}

	var body ecosResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("ecos decode: %w", err)
	}
	if body.StatisticSearch == nil {
		if body.Result != nil {
			return nil, fmt.Errorf("ecos %s: %s", body.Result.Code, body.Result.Message)
		}
		return nil, fmt.Errorf("ecos: empty response")
	}

	points := make([]market.Point, 0, len(body.StatisticSearch.Rows))
	for _, row := range body.StatisticSearch.Rows {
		v, err := decimal.NewFromString(strings.TrimSpace(row.Value))
		if err != nil {
			continue
		}
		f, _ := v.Round(2).Float64()
		points = append(points, market.Point{Date: ecosDate(row.Time), Value: f})
	}
	return points, nil
}

// ecosPeriod formats t the way ECOS expects for the given cycle.
// requestError drops the request URL, which carries the API key, from
// transport errors.
func (p *ECOSProvider) requestError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	if p.apiKey != "" && strings.Contains(err.Error(), p.apiKey) {
		return fmt.Errorf("ecos request: %s", strings.ReplaceAll(err.Error(), p.apiKey, "***"))
	}
	return fmt.Errorf("ecos request: %w", err)
}

func ecosPeriod(t time.Time, cycle string) string {
	switch cycle {
	case "Q":
		return fmt.Sprintf("%dQ%d", t.Year(), (int(t.Month())-1)/3+1)
	case "A":
		return fmt.Sprintf("%d", t.Year())
	default:
		return t.Format("200601")
	}
}

// ecosDate turns "202401" into "2024-01"; other shapes pass through.
func ecosDate(s string) string {
	if len(s) == 6 && !strings.Contains(s, "Q") {
		return s[:4] + "-" + s[4:]
	}
	return s
}
