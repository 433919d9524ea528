package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
)

const insightsPrompt = `
You are an expert financial analyst.
Given the bank statement text below, extract and compute the following insights strictly in valid JSON format without any additional commentary, explanations, or extra text.
Chart Data Format:
The first line chart should include 12 entries, one for each month of the year.
Each entry should have three keys: "name" (the month name), "Income" (the total income for that month), and "Expenditure" (the total expenditure for that month).
The second bar chart should include 5 entries, the top 5 categories with the most expenses.
Each entry should have two keys: "name" (the category name) and "amount" (the total amount spent in that category).
The third pie chart should take all the expenses and accumulate them into categories.
Each entry should have two keys: "name" (the category name) and "amount" (the total amount spent in that category).
Put similar categories together and provide the total amount spent in each category.
The fourth line chart has the savings for each month, the difference between the income and the expenditure of that month in the first line chart.
Each entry should have two keys: "name" (the month name) and "amount" (income minus expenditure for that month).
Analyze all of the data, find the common categories and accumulate them.
Example of the expected output:
{
  "charts": {
    "lineChart": {
      "data": [
        { "name": "January", "Income": 4000, "Expenditure": 2400 },
        { "name": "February", "Income": 3000, "Expenditure": 1398 }
      ]
    },
    "barChart": {
      "data": [
        { "name": "Rent", "amount": 1500 },
        { "name": "Groceries", "amount": 800 }
      ]
    },
    "pieChart": {
      "data": [
        { "name": "Rent", "amount": 1500 },
        { "name": "Groceries", "amount": 800 }
      ]
    },
    "savingsChart": {
      "data": [
        { "name": "January", "amount": 1600 },
        { "name": "February", "amount": 1602 }
      ]
    }
  }
}
Your JSON must include all four charts with the specified data format. lineChart and savingsChart must have all 12 months.
Do not include any additional text or explanations before or after the JSON.
Return only valid JSON.
`

var months = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

const barChartSize = 5

// InsightService asks the model for the four statement charts in one call.
type InsightService struct {
	documents DocumentReader
	llm       LLM
	logger    *slog.Logger
}

func NewInsightService(documents DocumentReader, llm LLM) *InsightService {
	return &InsightService{
		documents: documents,
		llm:       llm,
		logger:    logger.NewModuleLogger("service", "insights"),
	}
}

// Extract returns nil insights and no error when the model reply cannot be
// parsed; callers render that as an empty object.
func (s *InsightService) Extract(ctx context.Context, documentID string) (*types.Insights, error) {
	text, err := s.documents.FullText(ctx, documentID)
	if err != nil {
		return nil, err
	}

	prompt := insightsPrompt + "\nThe overall bank statement text is provided below:\n" + text
	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, upstream(err)
	}

	insights, err := ParseInsights(raw)
	if err != nil {
		s.logger.Warn("could not parse insights reply", "pdf_id", documentID, "error", err)
		return nil, nil
	}
	return insights, nil
}

// number accepts JSON numbers and numeric strings such as "1,200.50".
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type chartEntry struct {
	Name        string `json:"name"`
	Income      number `json:"Income"`
	Expenditure number `json:"Expenditure"`
	Amount      number `json:"amount"`
}

// chartSeries decodes either a bare array or an object holding a "data" array.
type chartSeries []chartEntry

func (c *chartSeries) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var entries []chartEntry
		if err := json.Unmarshal(b, &entries); err != nil {
			return err
		}
		*c = entries
		return nil
	}
	var wrapped struct {
		Data []chartEntry `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*c = wrapped.Data
	return nil
}

type chartSet struct {
	LineChart    chartSeries `json:"lineChart"`
	BarChart     chartSeries `json:"barChart"`
	PieChart     chartSeries `json:"pieChart"`
	SavingsChart chartSeries `json:"savingsChart"`
}

// ParseInsights decodes a model reply into the four normalized charts.
// Errors wrap types.ErrParse.
func ParseInsights(raw string) (*types.Insights, error) {
	body := StripJSONFence(raw)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var envelope struct {
		Charts *chartSet `json:"charts"`
		chartSet
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("%w: insights: %w", types.ErrParse, err)
	}
	charts := envelope.chartSet
	if envelope.Charts != nil {
		charts = *envelope.Charts
	}
	if charts.LineChart == nil && charts.BarChart == nil && charts.PieChart == nil && charts.SavingsChart == nil {
		return nil, fmt.Errorf("%w: insights: %w", types.ErrParse, errors.New("no chart data in reply"))
	}

	return &types.Insights{
		LineChart:    monthlyFlows(charts.LineChart),
		BarChart:     categories(charts.BarChart, barChartSize),
		PieChart:     categories(charts.PieChart, 0),
		SavingsChart: monthlyAmounts(charts.SavingsChart),
	}, nil
}

// monthIndex maps a month name or its three letter prefix to 0..11.
func monthIndex(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 3 {
		return -1
	}
	for i, m := range months {
		if strings.HasPrefix(strings.ToLower(m), name[:3]) {
			return i
		}
	}
	return -1
}

// monthSlots maps each entry to a month index, or -1 to drop it. Entries are
// placed by month name; position is used only when no entry names a month.
func monthSlots(entries chartSeries) []int {
	slots := make([]int, len(entries))
	named := false
	for i, e := range entries {
		slots[i] = monthIndex(e.Name)
		if slots[i] >= 0 {
			named = true
		}
	}
	if named {
		return slots
	}
	for i := range slots {
		slots[i] = -1
		if i < len(months) {
			slots[i] = i
		}
	}
	return slots
}

func monthlyFlows(entries chartSeries) []types.MonthlyFlow {
	out := make([]types.MonthlyFlow, len(months))
	for i, m := range months {
		out[i].Name = m
	}
	for i, idx := range monthSlots(entries) {
		if idx < 0 {
			continue
		}
		out[idx].Income = float64(entries[i].Income)
		out[idx].Expenditure = float64(entries[i].Expenditure)
	}
	return out
}

func monthlyAmounts(entries chartSeries) []types.MonthlyAmount {
	out := make([]types.MonthlyAmount, len(months))
	for i, m := range months {
		out[i].Name = m
	}
	for i, idx := range monthSlots(entries) {
		if idx < 0 {
			continue
		}
		out[idx].Amount = float64(entries[i].Amount)
	}
	return out
}

// categories copies entries in reply order, keeping at most limit when
// limit is positive.
func categories(entries chartSeries, limit int) []types.CategorySpend {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]types.CategorySpend, 0, len(entries))
	for _, e := range entries {
		out = append(out, types.CategorySpend{Name: e.Name, Amount: float64(e.Amount)})
	}
	return out
}
