package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Chart types accepted by make_chart.
const (
	ChartLine  = "line"
	ChartArea  = "area"
	ChartBar   = "bar"
	ChartCombo = "combo"
)

// Annotation is a reference mark drawn on a chart.
type Annotation struct {
	Type  string  `json:"type"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// annotationPresets expand the symbolic annotation names the model may use.
var annotationPresets = map[string]Annotation{
	"TARGET_2PCT": {Type: "horizontal_line", Y: 2.0, Label: "목표 물가 2%", Color: "#C8A96A"},
}

// ChartRequest is the chart description the model sends.
type ChartRequest struct {
	Type        string   `json:"type"`
	Series      []string `json:"series"`
	Y2          []string `json:"y2,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
}

// ChartArgs are the arguments of make_chart.
type ChartArgs struct {
	Spec *ChartRequest `json:"spec"`
}

func (a *ChartArgs) Validate() error {
	if a.Spec == nil {
		return errors.New("spec is required")
	}
	switch a.Spec.Type {
	case ChartLine, ChartArea, ChartBar, ChartCombo:
	case "":
		a.Spec.Type = ChartLine
	default:
		return fmt.Errorf("unsupported chart type %q", a.Spec.Type)
	}
	if len(a.Spec.Series) == 0 {
		return errors.New("spec.series is required")
	}
	return nil
}

// ChartSpec is the normalized chart description handed to the renderer.
type ChartSpec struct {
	ChartType   string       `json:"chart_type"`
	Series      []string     `json:"series"`
	Y2Axis      []string     `json:"y2_axis"`
	Annotations []Annotation `json:"annotations"`
}

type ChartMeta struct {
	CreatedAt string `json:"created_at"`
	Tool      string `json:"tool"`
}

// ChartResult is what make_chart returns; the widget synthesizer turns it
// into a chart widget.
type ChartResult struct {
	Type string    `json:"type"`
	Spec ChartSpec `json:"spec"`
	Meta ChartMeta `json:"meta"`
}

// BuildChart normalizes a chart request. Unknown annotation names are dropped.
func BuildChart(req ChartRequest, now time.Time) *ChartResult {
	spec := ChartSpec{
		ChartType:   req.Type,
		Series:      append([]string{}, req.Series...),
		Y2Axis:      append([]string{}, req.Y2...),
		Annotations: []Annotation{},
	}
	for _, name := range req.Annotations {
		if a, ok := annotationPresets[name]; ok {
			spec.Annotations = append(spec.Annotations, a)
		}
	}
	return &ChartResult{
		Type: "chart",
		Spec: spec,
		Meta: ChartMeta{CreatedAt: now.Format(time.RFC3339), Tool: "make_chart"},
	}
}

func NewChartTool(now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return New("make_chart",
		"차트 스펙을 생성합니다",
		jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"spec": {
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"type": {Type: jsonschema.String, Enum: []string{ChartLine, ChartArea, ChartBar, ChartCombo}},
						"series": {
							Type:        jsonschema.Array,
							Items:       &jsonschema.Definition{Type: jsonschema.String},
							Description: "표시할 시리즈 이름 목록",
						},
						"y2": {
							Type:        jsonschema.Array,
							Items:       &jsonschema.Definition{Type: jsonschema.String},
							Description: "보조 축에 표시할 시리즈",
						},
						"annotations": {
							Type:        jsonschema.Array,
							Items:       &jsonschema.Definition{Type: jsonschema.String},
							Description: "주석 (예: TARGET_2PCT)",
						},
					},
					Required: []string{"type", "series"},
				},
			},
			Required: []string{"spec"},
		},
		func(_ context.Context, args ChartArgs) (*ChartResult, error) {
			return BuildChart(*args.Spec, now()), nil
		})
}
