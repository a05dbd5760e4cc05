package reports

import (
	"math"
	"sort"

	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
)

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// BalanceSheetSection contains the accounts and total for a classification.
type BalanceSheetSection struct {
	Label    string                `json:"label"`
	Accounts []BalanceSheetAccount `json:"accounts"`
	Total    float64               `json:"total"`
}

// BalanceSheet nets cumulative balances through the as-of date. Retained
// earnings is not journaled until a period close rolls it into equity, so
// the period-to-date net income is computed from revenue and expense
// activity and carried separately. The defining identity is
// TotalAssets == TotalLiabilities + TotalEquity + CalculatedNetIncome.
type BalanceSheet struct {
	Assets                    BalanceSheetSection `json:"assets"`
	Liabilities               BalanceSheetSection `json:"liabilities"`
	Equity                    BalanceSheetSection `json:"equity"`
	TotalAssets               float64             `json:"total_assets"`
	TotalLiabilities          float64             `json:"total_liabilities"`
	TotalEquity               float64             `json:"total_equity"`
	CalculatedNetIncome       float64             `json:"calculated_net_income"`
	TotalLiabilitiesAndEquity float64             `json:"total_liabilities_and_equity"`
}

// BuildBalanceSheet aggregates cumulative activity into the three sections
// and folds period-to-date net income into the liabilities-and-equity total.
func BuildBalanceSheet(activity []AccountActivity) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets"}
	liabilities := BalanceSheetSection{Label: "Liabilities"}
	equity := BalanceSheetSection{Label: "Equity"}
	var revenue, expense float64

	for _, acc := range activity {
		balance := round2(acc.Balance())
		row := BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: balance}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			assets.Accounts = append(assets.Accounts, row)
			assets.Total += balance
		case accounts.AccountTypeLiability:
			liabilities.Accounts = append(liabilities.Accounts, row)
			liabilities.Total += balance
		case accounts.AccountTypeEquity:
			equity.Accounts = append(equity.Accounts, row)
			equity.Total += balance
		case accounts.AccountTypeRevenue:
			revenue += balance
		case accounts.AccountTypeExpense:
			expense += balance
		}
	}

	sort.Slice(assets.Accounts, func(i, j int) bool { return assets.Accounts[i].Code < assets.Accounts[j].Code })
	sort.Slice(liabilities.Accounts, func(i, j int) bool { return liabilities.Accounts[i].Code < liabilities.Accounts[j].Code })
	sort.Slice(equity.Accounts, func(i, j int) bool { return equity.Accounts[i].Code < equity.Accounts[j].Code })

	assets.Total = round2(assets.Total)
	liabilities.Total = round2(liabilities.Total)
	equity.Total = round2(equity.Total)
	netIncome := round2(revenue - expense)
	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalAssets:               assets.Total,
		TotalLiabilities:          liabilities.Total,
		TotalEquity:               equity.Total,
		CalculatedNetIncome:       netIncome,
		TotalLiabilitiesAndEquity: round2(liabilities.Total + equity.Total + netIncome),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
