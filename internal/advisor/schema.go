package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/orchestra-ai/internal/domain"
	"google.golang.org/genai"
)

var actionsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action": {Type: genai.TypeString},
			"impact": {Type: genai.TypeString},
			"type": {
				Type: genai.TypeString,
				Enum: []string{string(domain.ActionSaving), string(domain.ActionRisk), string(domain.ActionGrowth)},
			},
		},
		Required: []string{"action", "impact", "type"},
	},
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":         {Type: genai.TypeString},
			"category":   {Type: genai.TypeString},
			"riskScore":  {Type: genai.TypeNumber},
			"riskReason": {Type: genai.TypeString},
			"isAnomaly":  {Type: genai.TypeBoolean},
		},
		Required: []string{"id", "category", "riskScore", "riskReason", "isAnomaly"},
	},
}

var forecastSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"explanation": {Type: genai.TypeString},
		"data": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"month":     {Type: genai.TypeString},
					"income":    {Type: genai.TypeNumber},
					"expenses":  {Type: genai.TypeNumber},
					"balance":   {Type: genai.TypeNumber},
					"projected": {Type: genai.TypeBoolean},
				},
				Required: []string{"month", "income", "expenses", "balance", "projected"},
			},
		},
	},
	Required: []string{"explanation", "data"},
}

// cleanModelJSON strips Markdown fences and surrounding chatter so only the
// JSON document remains. first and last are the expected outer delimiters.
func cleanModelJSON(raw string, first, last byte) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// drop the ``` or ```json line
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.IndexByte(s, first); start != -1 {
		if end := strings.LastIndexByte(s, last); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

func decodeStrict(raw string, first, last byte, v any) error {
	dec := json.NewDecoder(strings.NewReader(cleanModelJSON(raw, first, last)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

type rawAction struct {
	Action *string `json:"action"`
	Impact *string `json:"impact"`
	Type   *string `json:"type"`
}

// parseActions decodes and validates a strategic actions response.
func parseActions(raw string) ([]domain.StrategicAction, error) {
	var items []rawAction
	if err := decodeStrict(raw, '[', ']', &items); err != nil {
		return nil, err
	}
	if len(items) != StrategicActionCount {
		return nil, fmt.Errorf("%w: want %d actions, got %d", ErrSchema, StrategicActionCount, len(items))
	}

	out := make([]domain.StrategicAction, 0, len(items))
	for i, it := range items {
		if it.Action == nil || it.Impact == nil || it.Type == nil {
			return nil, fmt.Errorf("%w: action %d missing field", ErrSchema, i)
		}
		a := domain.StrategicAction{
			Action: strings.TrimSpace(*it.Action),
			Impact: strings.TrimSpace(*it.Impact),
			Type:   domain.ActionType(strings.ToLower(strings.TrimSpace(*it.Type))),
		}
		if a.Action == "" || !a.Type.Valid() {
			return nil, fmt.Errorf("%w: action %d invalid: %+v", ErrSchema, i, a)
		}
		out = append(out, a)
	}
	return out, nil
}

type rawAnalysis struct {
	ID         *string  `json:"id"`
	Category   *string  `json:"category"`
	RiskScore  *float64 `json:"riskScore"`
	RiskReason *string  `json:"riskReason"`
	IsAnomaly  *bool    `json:"isAnomaly"`
}

// parseAnalysis decodes and validates a categorization response. Results for
// ids that were not asked about are dropped.
func parseAnalysis(raw string, asked map[string]bool) ([]domain.CategorizationResult, error) {
	var items []rawAnalysis
	if err := decodeStrict(raw, '[', ']', &items); err != nil {
		return nil, err
	}

	out := make([]domain.CategorizationResult, 0, len(items))
	for i, it := range items {
		if it.ID == nil || it.Category == nil || it.RiskScore == nil || it.IsAnomaly == nil {
			return nil, fmt.Errorf("%w: result %d missing field", ErrSchema, i)
		}
		score := *it.RiskScore
		if score < 0 || score > 100 {
			return nil, fmt.Errorf("%w: result %d risk score %v out of range", ErrSchema, i, score)
		}
		if !asked[*it.ID] {
			continue
		}
		r := domain.CategorizationResult{
			ID:        *it.ID,
			Category:  strings.TrimSpace(*it.Category),
			RiskScore: int(score + 0.5),
			IsAnomaly: *it.IsAnomaly,
		}
		if it.RiskReason != nil {
			r.RiskReason = strings.TrimSpace(*it.RiskReason)
		}
		if r.Category == "" {
			r.Category = domain.UncategorizedCategory
		}
		out = append(out, r)
	}
	return out, nil
}

type rawPoint struct {
	Month     *string  `json:"month"`
	Income    *float64 `json:"income"`
	Expenses  *float64 `json:"expenses"`
	Balance   *float64 `json:"balance"`
	Projected *bool    `json:"projected"`
}

type rawForecast struct {
	Explanation *string    `json:"explanation"`
	Data        []rawPoint `json:"data"`
}

// parseForecast decodes and validates a scenario forecast response: exactly
// ForecastHorizon points, all projected, with non-negative flows.
func parseForecast(raw string) (domain.Forecast, error) {
	var f rawForecast
	if err := decodeStrict(raw, '{', '}', &f); err != nil {
		return domain.Forecast{}, err
	}
	if f.Explanation == nil {
		return domain.Forecast{}, fmt.Errorf("%w: missing explanation", ErrSchema)
	}
	if len(f.Data) != ForecastHorizon {
		return domain.Forecast{}, fmt.Errorf("%w: want %d points, got %d", ErrSchema, ForecastHorizon, len(f.Data))
	}

	out := domain.Forecast{
		Explanation: strings.TrimSpace(*f.Explanation),
		Data:        make([]domain.CashflowPoint, 0, len(f.Data)),
	}
	for i, p := range f.Data {
		if p.Month == nil || p.Income == nil || p.Expenses == nil || p.Balance == nil || p.Projected == nil {
			return domain.Forecast{}, fmt.Errorf("%w: point %d missing field", ErrSchema, i)
		}
		if !*p.Projected || *p.Income < 0 || *p.Expenses < 0 || strings.TrimSpace(*p.Month) == "" {
			return domain.Forecast{}, fmt.Errorf("%w: point %d invalid", ErrSchema, i)
		}
		out.Data = append(out.Data, domain.CashflowPoint{
			Month:     strings.TrimSpace(*p.Month),
			Income:    *p.Income,
			Expenses:  *p.Expenses,
			Balance:   *p.Balance,
			Projected: true,
		})
	}
	return out, nil
}
