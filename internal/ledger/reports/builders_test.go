package reports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
)

func sampleActivity() []AccountActivity {
	return []AccountActivity{
		{AccountID: 1, Code: "1100", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: 1000, Credit: 200},
		{AccountID: 2, Code: "1200", Name: "Accounts receivable", Type: accounts.AccountTypeAsset, Debit: 500},
		{AccountID: 3, Code: "2100", Name: "Accounts payable", Type: accounts.AccountTypeLiability, Credit: 300},
		{AccountID: 4, Code: "3100", Name: "Share capital", Type: accounts.AccountTypeEquity, Credit: 800},
		{AccountID: 5, Code: "4100", Name: "Product revenue", Type: accounts.AccountTypeRevenue, Credit: 700},
		{AccountID: 6, Code: "5100", Name: "Materials expense", Type: accounts.AccountTypeExpense, Debit: 500},
		{AccountID: 7, Code: "1900", Name: "Dormant account", Type: accounts.AccountTypeAsset},
	}
}

func TestBuildTrialBalanceBalances(t *testing.T) {
	tb := BuildTrialBalance(sampleActivity())

	// The dormant account carries no activity and is dropped.
	require.Len(t, tb.Rows, 6)
	require.InDelta(t, tb.TotalDebit, tb.TotalCredit, 1e-9)
	require.InDelta(t, tb.TotalDebitBalances, tb.TotalCreditBalances, 1e-9)
	require.InDelta(t, 1800.0, tb.TotalDebitBalances, 1e-9)

	// Rows come back sorted by code.
	for i := 1; i < len(tb.Rows); i++ {
		require.True(t, tb.Rows[i-1].Code < tb.Rows[i].Code)
	}
}

func TestBuildTrialBalanceContraBalance(t *testing.T) {
	tb := BuildTrialBalance([]AccountActivity{
		{AccountID: 1, Code: "1100", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: 100, Credit: 400},
	})
	require.Len(t, tb.Rows, 1)
	// Net credit on an asset lands in the credit column, never negative.
	require.InDelta(t, 0.0, tb.Rows[0].DebitBalance, 1e-9)
	require.InDelta(t, 300.0, tb.Rows[0].CreditBalance, 1e-9)
}

func TestBuildIncomeStatement(t *testing.T) {
	pl := BuildIncomeStatement(sampleActivity())

	require.InDelta(t, 700.0, pl.TotalRevenue, 1e-9)
	require.InDelta(t, 500.0, pl.TotalExpense, 1e-9)
	require.InDelta(t, 200.0, pl.NetIncome, 1e-9)
	require.Len(t, pl.Revenue.Accounts, 1)
	require.Len(t, pl.Expense.Accounts, 1)
}

func TestBuildBalanceSheetIdentity(t *testing.T) {
	bs := BuildBalanceSheet(sampleActivity())

	require.InDelta(t, 1300.0, bs.TotalAssets, 1e-9)
	require.InDelta(t, 300.0, bs.TotalLiabilities, 1e-9)
	require.InDelta(t, 800.0, bs.TotalEquity, 1e-9)
	require.InDelta(t, 200.0, bs.CalculatedNetIncome, 1e-9)
	require.InDelta(t, bs.TotalAssets, bs.TotalLiabilitiesAndEquity, 1e-9)
}

func TestBuildBudgetVariance(t *testing.T) {
	bv := BuildBudgetVariance(2025, 3, []BudgetActual{
		{AccountID: 1, Code: "5100", Name: "Materials expense", Budget: 1000, Actual: 1250},
		{AccountID: 2, Code: "5200", Name: "Payroll", Budget: 0, Actual: 90},
	})

	require.Equal(t, 2025, bv.Year)
	require.InDelta(t, 250.0, bv.Rows[0].Variance, 1e-9)
	require.InDelta(t, 25.0, bv.Rows[0].VariancePct, 1e-9)

	// Zero budget never divides; the percentage is pinned to zero.
	require.InDelta(t, 90.0, bv.Rows[1].Variance, 1e-9)
	require.InDelta(t, 0.0, bv.Rows[1].VariancePct, 1e-9)

	require.InDelta(t, 1000.0, bv.TotalBudget, 1e-9)
	require.InDelta(t, 1340.0, bv.TotalActual, 1e-9)
	require.InDelta(t, 340.0, bv.TotalVariance, 1e-9)
}

func TestWriteTrialBalanceCSV(t *testing.T) {
	tb := BuildTrialBalance(sampleActivity())

	var sb strings.Builder
	require.NoError(t, WriteTrialBalanceCSV(&sb, tb))

	out := sb.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header, six rows, totals.
	require.Len(t, lines, 8)
	require.True(t, strings.HasPrefix(lines[0], "code,name,type"))
	require.Contains(t, lines[len(lines)-1], "TOTAL")
	require.Contains(t, out, `"1,800.00"`)
}
