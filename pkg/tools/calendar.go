package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/comigor/econlux-go/internal/market"
)

type CalendarArgs struct {
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
	Country  string `json:"country,omitempty"`
}

func (a *CalendarArgs) Validate() error {
	for field, v := range map[string]string{"from_date": a.FromDate, "to_date": a.ToDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

type CalendarResult struct {
	Events []market.CalendarEvent `json:"events"`
	Period string                 `json:"period"`
}

// Calendar lists upcoming releases for the country, restricted to the
// requested date range when one is given.
func Calendar(args CalendarArgs, now time.Time) *CalendarResult {
	events := market.MockCalendar(now, args.Country)

	from, to := "now", "+7days"
	if args.FromDate != "" {
		from = args.FromDate
	}
	if args.ToDate != "" {
		to = args.ToDate
	}

	filtered := make([]market.CalendarEvent, 0, len(events))
	for _, e := range events {
		day := e.At().Format(dateLayout)
		if args.FromDate != "" && day < args.FromDate {
			continue
		}
		if args.ToDate != "" && day > args.ToDate {
			continue
		}
		filtered = append(filtered, e)
	}
	return &CalendarResult{Events: filtered, Period: from + " ~ " + to}
}

func NewCalendarTool(now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return New("get_calendar",
		"경제지표 발표 일정을 조회합니다",
		jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"from_date": {Type: jsonschema.String, Description: "시작일 (YYYY-MM-DD)"},
				"to_date":   {Type: jsonschema.String, Description: "종료일 (YYYY-MM-DD)"},
				"country":   {Type: jsonschema.String, Description: "국가 코드 (KR, US 등)"},
			},
		},
		func(_ context.Context, args CalendarArgs) (*CalendarResult, error) {
			return Calendar(args, now()), nil
		})
}
