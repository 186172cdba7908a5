package agent

import (
	"encoding/json"
	"errors"

	"github.com/comigor/econlux-go/internal/conversation"
	"github.com/comigor/econlux-go/internal/market"
	"github.com/comigor/econlux-go/pkg/tools"
)

// WidgetType tags the variant carried by a Widget.
type WidgetType string

const (
	WidgetChart WidgetType = "chart"
	WidgetTable WidgetType = "table"
	WidgetCard  WidgetType = "card"
)

// Card variants.
const (
	CardDefault = "default"
	CardSuccess = "success"
	CardWarning = "warning"
	CardError   = "error"
)

const (
	defaultChartTitle = "차트"
	fallbackSource    = "Mock Data"
)

type ChartWidget struct {
	Spec   tools.ChartSpec           `json:"spec"`
	Data   map[string][]market.Point `json:"data"`
	Title  string                    `json:"title"`
	Source string                    `json:"source"`
}

type TableWidget struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Title   string           `json:"title,omitempty"`
	Source  string           `json:"source,omitempty"`
}

type CardWidget struct {
	Title   string `json:"title"`
	BodyMD  string `json:"body_md"`
	Footer  string `json:"footer,omitempty"`
	Variant string `json:"variant"`
}

// Widget is a display unit holding exactly one variant. The zero value is
// not valid; use the constructors.
type Widget struct {
	ID string

	chart *ChartWidget
	table *TableWidget
	card  *CardWidget
}

func NewChartWidget(id string, c ChartWidget) Widget { return Widget{ID: id, chart: &c} }
func NewTableWidget(id string, t TableWidget) Widget { return Widget{ID: id, table: &t} }

func NewCardWidget(id string, c CardWidget) Widget {
	if c.Variant == "" {
		c.Variant = CardDefault
	}
	return Widget{ID: id, card: &c}
}

func (w Widget) Type() WidgetType {
	switch {
	case w.chart != nil:
		return WidgetChart
	case w.table != nil:
		return WidgetTable
	case w.card != nil:
		return WidgetCard
	}
	return ""
}

func (w Widget) Chart() (*ChartWidget, bool) { return w.chart, w.chart != nil }
func (w Widget) Table() (*TableWidget, bool) { return w.table, w.table != nil }
func (w Widget) Card() (*CardWidget, bool)   { return w.card, w.card != nil }

// MarshalJSON flattens the variant next to the id and type tag.
func (w Widget) MarshalJSON() ([]byte, error) {
	var body any
	switch {
	case w.chart != nil:
		body = w.chart
	case w.table != nil:
		body = w.table
	case w.card != nil:
		body = w.card
	default:
		return nil, errors.New("widget has no variant")
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["id"], _ = json.Marshal(w.ID)
	fields["type"], _ = json.Marshal(w.Type())
	return json.Marshal(fields)
}

// UnmarshalJSON reads the flattened form written by MarshalJSON.
func (w *Widget) UnmarshalJSON(data []byte) error {
	var head struct {
		ID   string     `json:"id"`
		Type WidgetType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	*w = Widget{ID: head.ID}
	switch head.Type {
	case WidgetChart:
		w.chart = &ChartWidget{}
		return json.Unmarshal(data, w.chart)
	case WidgetTable:
		w.table = &TableWidget{}
		return json.Unmarshal(data, w.table)
	case WidgetCard:
		w.card = &CardWidget{}
		return json.Unmarshal(data, w.card)
	}
	return errors.New("unknown widget type " + string(head.Type))
}

// seriesCarrier is implemented by tool results holding time-series data.
type seriesCarrier interface {
	SeriesData() map[string][]market.Point
}

// synthesizer turns a tool result into a widget, reporting false when the
// result does not produce one.
type synthesizer func(id string, result any, cache *conversation.ResultCache) (Widget, bool)

var synthesizers = map[string]synthesizer{
	"make_chart": chartFromResult,
}

// chartFromResult pairs a chart spec with the first series data cached
// this turn. A chart without data is still returned.
func chartFromResult(id string, result any, cache *conversation.ResultCache) (Widget, bool) {
	chart, ok := result.(*tools.ChartResult)
	if !ok {
		return Widget{}, false
	}

	cw := ChartWidget{
		Spec:   chart.Spec,
		Data:   map[string][]market.Point{},
		Title:  defaultChartTitle,
		Source: fallbackSource,
	}
	cache.Each(func(_ string, r any) bool {
		sc, ok := r.(seriesCarrier)
		if !ok || sc.SeriesData() == nil {
			return true
		}
		cw.Data = sc.SeriesData()
		if src, ok := r.(tools.Sourced); ok {
			if name, _ := src.SourceRef(); name != "" {
				cw.Source = name
			}
		}
		return false
	})
	return NewChartWidget(id, cw), true
}
