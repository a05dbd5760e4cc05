package reports

import (
	"sort"

	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
)

// IncomeStatementAccount represents a revenue or expense account summary.
type IncomeStatementAccount struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// IncomeStatementSection groups accounts by nature.
type IncomeStatementSection struct {
	Label    string                   `json:"label"`
	Accounts []IncomeStatementAccount `json:"accounts"`
	Total    float64                  `json:"total"`
}

// IncomeStatement sums revenue and expense postings for a range.
type IncomeStatement struct {
	Revenue      IncomeStatementSection `json:"revenue"`
	Expense      IncomeStatementSection `json:"expense"`
	TotalRevenue float64                `json:"total_revenue"`
	TotalExpense float64                `json:"total_expense"`
	NetIncome    float64                `json:"net_income"`
}

// BuildIncomeStatement aggregates revenue and expense activity. Other
// account types never contribute.
func BuildIncomeStatement(activity []AccountActivity) IncomeStatement {
	revenue := IncomeStatementSection{Label: "Revenue"}
	expense := IncomeStatementSection{Label: "Expense"}

	for _, acc := range activity {
		amount := round2(acc.Balance())
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			revenue.Accounts = append(revenue.Accounts, IncomeStatementAccount{Code: acc.Code, Name: acc.Name, Amount: amount})
			revenue.Total += amount
		case accounts.AccountTypeExpense:
			expense.Accounts = append(expense.Accounts, IncomeStatementAccount{Code: acc.Code, Name: acc.Name, Amount: amount})
			expense.Total += amount
		}
	}

	sort.Slice(revenue.Accounts, func(i, j int) bool { return revenue.Accounts[i].Code < revenue.Accounts[j].Code })
	sort.Slice(expense.Accounts, func(i, j int) bool { return expense.Accounts[i].Code < expense.Accounts[j].Code })

	revenue.Total = round2(revenue.Total)
	expense.Total = round2(expense.Total)
	return IncomeStatement{
		Revenue:      revenue,
		Expense:      expense,
		TotalRevenue: revenue.Total,
		TotalExpense: expense.Total,
		NetIncome:    round2(revenue.Total - expense.Total),
	}
}
