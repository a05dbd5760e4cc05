package reports

import (
	"math"
	"sort"
)

// BudgetVarianceRow compares one account's actual postings against its
// monthly target.
type BudgetVarianceRow struct {
	AccountID   int64   `json:"account_id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Budget      float64 `json:"budget"`
	Actual      float64 `json:"actual"`
	Variance    float64 `json:"variance"`
	VariancePct float64 `json:"variance_pct"`
}

// BudgetVariance is the report for one fiscal month.
type BudgetVariance struct {
	Year          int                 `json:"year"`
	Month         int                 `json:"month"`
	Rows          []BudgetVarianceRow `json:"rows"`
	TotalBudget   float64             `json:"total_budget"`
	TotalActual   float64             `json:"total_actual"`
	TotalVariance float64             `json:"total_variance"`
}

// BudgetActual pairs a budget target with the account's actual activity.
type BudgetActual struct {
	AccountID int64
	Code      string
	Name      string
	Budget    float64
	Actual    float64
}

// BuildBudgetVariance computes variance = actual - budget per account. The
// percentage is defined as zero when the budget is zero, never NaN or Inf.
func BuildBudgetVariance(year, month int, pairs []BudgetActual) BudgetVariance {
	result := BudgetVariance{Year: year, Month: month}
	for _, pair := range pairs {
		row := BudgetVarianceRow{
			AccountID: pair.AccountID,
			Code:      pair.Code,
			Name:      pair.Name,
			Budget:    round2(pair.Budget),
			Actual:    round2(pair.Actual),
		}
		row.Variance = round2(row.Actual - row.Budget)
		if row.Budget != 0 {
			row.VariancePct = round2(row.Variance / row.Budget * 100)
		}
		result.Rows = append(result.Rows, row)
		result.TotalBudget += row.Budget
		result.TotalActual += row.Actual
		result.TotalVariance += row.Variance
	}
	sort.Slice(result.Rows, func(i, j int) bool {
		if result.Rows[i].Code != result.Rows[j].Code {
			return result.Rows[i].Code < result.Rows[j].Code
		}
		return math.Abs(result.Rows[i].Variance) > math.Abs(result.Rows[j].Variance)
	})
	result.TotalBudget = round2(result.TotalBudget)
	result.TotalActual = round2(result.TotalActual)
	result.TotalVariance = round2(result.TotalVariance)
	return result
}
