package reports

import (
	"sort"

	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
)

// AccountActivity models one account with aggregated debits and credits
// over a report range.
type AccountActivity struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Debit     float64
	Credit    float64
}

// Balance computes the net balance signed by the account's normal side.
func (a AccountActivity) Balance() float64 {
	return (a.Debit - a.Credit) * accounts.NormalSide(a.Type)
}

// TrialBalanceRow is one account line in the trial balance.
type TrialBalanceRow struct {
	AccountID     int64   `json:"account_id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Debit         float64 `json:"debit"`
	Credit        float64 `json:"credit"`
	DebitBalance  float64 `json:"debit_balance"`
	CreditBalance float64 `json:"credit_balance"`
}

// TrialBalance lists every account's net balance. Total debit balances must
// equal total credit balances.
type TrialBalance struct {
	Rows                []TrialBalanceRow `json:"rows"`
	TotalDebit          float64           `json:"total_debit"`
	TotalCredit         float64           `json:"total_credit"`
	TotalDebitBalances  float64           `json:"total_debit_balances"`
	TotalCreditBalances float64           `json:"total_credit_balances"`
}

// BuildTrialBalance converts account activity into trial balance rows. The
// net of each account lands in the column of its normal side; a contra
// balance (negative on the normal side) lands in the opposite column.
func BuildTrialBalance(activity []AccountActivity) TrialBalance {
	result := TrialBalance{}
	for _, acc := range activity {
		if acc.Debit == 0 && acc.Credit == 0 {
			continue
		}
		row := TrialBalanceRow{
			AccountID: acc.AccountID,
			Code:      acc.Code,
			Name:      acc.Name,
			Type:      string(acc.Type),
			Debit:     round2(acc.Debit),
			Credit:    round2(acc.Credit),
		}
		net := round2(acc.Debit - acc.Credit)
		if net >= 0 {
			row.DebitBalance = net
		} else {
			row.CreditBalance = -net
		}
		result.Rows = append(result.Rows, row)
		result.TotalDebit += row.Debit
		result.TotalCredit += row.Credit
		result.TotalDebitBalances += row.DebitBalance
		result.TotalCreditBalances += row.CreditBalance
	}
	sort.Slice(result.Rows, func(i, j int) bool { return result.Rows[i].Code < result.Rows[j].Code })
	result.TotalDebit = round2(result.TotalDebit)
	result.TotalCredit = round2(result.TotalCredit)
	result.TotalDebitBalances = round2(result.TotalDebitBalances)
	result.TotalCreditBalances = round2(result.TotalCreditBalances)
	return result
}
