package types

// Insights is the chart-ready payload returned by the insights endpoint.
type Insights struct {
	LineChart    []MonthlyFlow   `json:"lineChart"`
	BarChart     []CategorySpend `json:"barChart"`
	PieChart     []CategorySpend `json:"pieChart"`
	SavingsChart []MonthlyAmount `json:"savingsChart"`
}

type MonthlyFlow struct {
	Name        string  `json:"name"`
	Income      float64 `json:"Income"`
	Expenditure float64 `json:"Expenditure"`
}

type CategorySpend struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type MonthlyAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}
