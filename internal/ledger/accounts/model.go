package accounts

import "time"

// AccountType enumerates CoA classifications.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Account models a chart of accounts node.
type Account struct {
	ID          int64
	Code        string
	Name        string
	Type        AccountType
	Category    string
	Description string
	IsCash      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// categoryAllowList fixes which categories each account type accepts.
var categoryAllowList = map[AccountType][]string{
	AccountTypeAsset:     {"CURRENT_ASSET", "FIXED_ASSET", "OTHER_ASSET"},
	AccountTypeLiability: {"CURRENT_LIABILITY", "LONG_TERM_LIABILITY", "OTHER_LIABILITY"},
	AccountTypeEquity:    {"CAPITAL", "RETAINED_EARNINGS", "OTHER_EQUITY"},
	AccountTypeRevenue:   {"OPERATING_REVENUE", "OTHER_REVENUE"},
	AccountTypeExpense:   {"COST_OF_GOODS_SOLD", "OPERATING_EXPENSE", "DEPRECIATION", "OTHER_EXPENSE"},
}

// ValidCategory reports whether category belongs to the allow-list for t.
func ValidCategory(t AccountType, category string) bool {
	for _, c := range categoryAllowList[t] {
		if c == category {
			return true
		}
	}
	return false
}

// ValidType reports whether t is a known account type.
func ValidType(t AccountType) bool {
	_, ok := categoryAllowList[t]
	return ok
}

// NormalSide returns +1 for debit-normal types and -1 for credit-normal.
func NormalSide(t AccountType) float64 {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return 1
	default:
		return -1
	}
}
