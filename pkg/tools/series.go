package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/comigor/econlux-go/internal/logger"
	"github.com/comigor/econlux-go/internal/market"
)

const dateLayout = "2006-01-02"

// SeriesProvider serves monthly observations for the metrics it supports.
type SeriesProvider interface {
	Name() string
	Supports(metric string) bool
	Fetch(ctx context.Context, metric string, start, end time.Time) ([]market.Point, error)
}

// SeriesArgs are the arguments of get_series.
type SeriesArgs struct {
	Metrics []string `json:"metrics"`
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
}

func (a *SeriesArgs) Validate() error {
	if len(a.Metrics) == 0 {
		return errors.New("metrics is required")
	}
	start, end, err := a.window(time.Now())
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("start %s is after end %s", a.Start, a.End)
	}
	return nil
}

// window resolves the requested range, defaulting to the three years up to now.
func (a *SeriesArgs) window(now time.Time) (start, end time.Time, err error) {
	end = now
	if a.End != "" {
		if end, err = time.Parse(dateLayout, a.End); err != nil {
			return start, end, fmt.Errorf("end: %w", err)
		}
	}
	start = end.AddDate(-3, 0, 0)
	if a.Start != "" {
		if start, err = time.Parse(dateLayout, a.Start); err != nil {
			return start, end, fmt.Errorf("start: %w", err)
		}
	}
	return start, end, nil
}

// SeriesResult maps each requested metric to its points.
type SeriesResult struct {
	Data      map[string][]market.Point `json:"data"`
	Source    string                    `json:"source"`
	UpdatedAt string                    `json:"updated_at"`
}

func (r *SeriesResult) SourceRef() (string, string) { return r.Source, r.UpdatedAt }

// SeriesData exposes the points for chart widgets.
func (r *SeriesResult) SeriesData() map[string][]market.Point { return r.Data }

// SeriesService resolves metrics against providers in order and falls back
// to generated data.
type SeriesService struct {
	providers []SeriesProvider
	now       func() time.Time
}

func NewSeriesService(now func() time.Time, providers ...SeriesProvider) *SeriesService {
	if now == nil {
		now = time.Now
	}
	return &SeriesService{providers: providers, now: now}
}

// Get returns every requested metric. Provider failures are logged and the
// metric is served from generated data instead.
func (s *SeriesService) Get(ctx context.Context, args SeriesArgs) (*SeriesResult, error) {
	now := s.now()
	start, end, err := args.window(now)
	if err != nil {
		return nil, err
	}

	res := &SeriesResult{
		Data:      make(map[string][]market.Point, len(args.Metrics)),
		UpdatedAt: now.Format(time.RFC3339),
	}
	var sources []string
	for _, metric := range args.Metrics {
		points, source := s.fetch(ctx, metric, start, end)
		res.Data[metric] = points
		if !slices.Contains(sources, source) {
			sources = append(sources, source)
		}
	}
	res.Source = strings.Join(sources, ", ")
	return res, nil
}

func (s *SeriesService) fetch(ctx context.Context, metric string, start, end time.Time) ([]market.Point, string) {
	for _, p := range s.providers {
		if !p.Supports(metric) {
			continue
		}
		points, err := p.Fetch(ctx, metric, start, end)
		if err != nil {
			logger.L.Warn("series provider failed; trying next", "provider", p.Name(), "metric", metric, "error", err)
			continue
		}
		if len(points) > 0 {
			return points, p.Name()
		}
	}
	return market.MockSeries(metric, start, end), market.MockSource
}

// NewSeriesTool exposes svc as get_series.
func NewSeriesTool(svc *SeriesService) Tool {
	return New("get_series",
		"경제 지표 시계열 데이터를 조회합니다 (CPI, 금리, 실업률 등)",
		jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"metrics": {
					Type:        jsonschema.Array,
					Items:       &jsonschema.Definition{Type: jsonschema.String},
					Description: "조회할 지표 목록 (예: CPI_YOY, CORE_CPI_YOY, POLICY_RATE, UNEMPLOYMENT)",
				},
				"start": {Type: jsonschema.String, Description: "시작일 (YYYY-MM-DD)"},
				"end":   {Type: jsonschema.String, Description: "종료일 (YYYY-MM-DD)"},
			},
			Required: []string{"metrics"},
		},
		func(ctx context.Context, args SeriesArgs) (*SeriesResult, error) {
			return svc.Get(ctx, args)
		})
}
