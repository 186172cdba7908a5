package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/shopspring/decimal"
)

// Spread interpretations.
const (
	SpreadNormal   = "정상"
	SpreadInverted = "역전 (경기침체 신호)"
)

type WhatIfArgs struct {
	Formula string             `json:"formula"`
	Inputs  map[string]float64 `json:"inputs"`
}

func (a *WhatIfArgs) Validate() error {
	if strings.TrimSpace(a.Formula) == "" {
		return errors.New("formula is required")
	}
	if a.Inputs == nil {
		return errors.New("inputs is required")
	}
	return nil
}

// WhatIfResult carries the fields of whichever formula matched. Pointer
// fields keep legitimate zeros in the output.
type WhatIfResult struct {
	Success bool `json:"success"`

	Spread         *float64 `json:"spread,omitempty"`
	SpreadBps      *float64 `json:"spread_bps,omitempty"`
	Interpretation string   `json:"interpretation,omitempty"`

	NewRate           *float64 `json:"new_rate,omitempty"`
	MortgageImpactPct *float64 `json:"mortgage_impact_pct,omitempty"`
	BondYieldImpactBp *float64 `json:"bond_yield_impact_bp,omitempty"`

	RawFormula string             `json:"raw_formula,omitempty"`
	Inputs     map[string]float64 `json:"inputs,omitempty"`
	Note       string             `json:"note,omitempty"`
}

// WhatIf evaluates one of the supported scenario formulas. Formulas
// mentioning "spread" compute the 10y-3y spread; "rate_change_impact"
// estimates the effect of a policy rate move. Anything else is echoed back.
func WhatIf(args WhatIfArgs) *WhatIfResult {
	in := func(key string, def float64) decimal.Decimal {
		if v, ok := args.Inputs[key]; ok {
			return decimal.NewFromFloat(v)
		}
		return decimal.NewFromFloat(def)
	}
	f := func(d decimal.Decimal) *float64 {
		v, _ := d.Float64()
		return &v
	}

	switch {
	case strings.Contains(args.Formula, "spread"):
		spread := in("rate_10y", 3.5).Sub(in("rate_3y", 3.2)).Round(2)
		interp := SpreadNormal
		if spread.IsNegative() {
			interp = SpreadInverted
		}
		return &WhatIfResult{
			Success:        true,
			Spread:         f(spread),
			SpreadBps:      f(spread.Mul(decimal.NewFromInt(100)).Round(0)),
			Interpretation: interp,
		}

	case strings.Contains(args.Formula, "rate_change_impact"):
		bp := in("rate_change_bp", 25)
		pct := bp.Div(decimal.NewFromInt(100))
		return &WhatIfResult{
			Success:           true,
			NewRate:           f(in("current_rate", 3.5).Add(pct).Round(2)),
			MortgageImpactPct: f(pct.Mul(decimal.RequireFromString("1.2")).Round(2)),
			BondYieldImpactBp: f(bp),
		}

	default:
		return &WhatIfResult{
			Success:    true,
			RawFormula: args.Formula,
			Inputs:     args.Inputs,
			Note:       "not implemented: supported formulas are spread and rate_change_impact",
		}
	}
}

func NewWhatIfTool() Tool {
	return New("calc_whatif",
		"시나리오 분석을 위한 계산을 수행합니다",
		jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"formula": {Type: jsonschema.String, Description: "계산식 (예: spread = rate_10y - rate_3y, rate_change_impact)"},
				"inputs": {
					Type:                 jsonschema.Object,
					Description:          "입력 변수 (예: rate_10y, rate_3y, rate_change_bp, current_rate)",
					AdditionalProperties: jsonschema.Definition{Type: jsonschema.Number},
				},
			},
			Required: []string{"formula", "inputs"},
		},
		func(_ context.Context, args WhatIfArgs) (*WhatIfResult, error) {
			return WhatIf(args), nil
		})
}
