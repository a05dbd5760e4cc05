package integration

import (
	"context"
	"fmt"
	"math"

	"github.com/forge-erp/forge-erp/internal/ledger/journals"
)

// AccountMap binds the fixed account codes used by upstream document hooks.
// It is resolved against the chart of accounts at startup so a missing
// account fails boot instead of a posting.
type AccountMap struct {
	ReceivableCode     string
	PayableCode        string
	CashCode           string
	RevenueCode        string
	TaxPayableCode     string
	TaxReceivableCode  string
	GRClearingCode     string
	DepreciationCode   string
	AccumulatedDepCode string

	receivableID     int64
	payableID        int64
	cashID           int64
	revenueID        int64
	taxPayableID     int64
	taxReceivableID  int64
	grClearingID     int64
	depreciationID   int64
	accumulatedDepID int64
}

// DefaultAccountMap wires the standard chart codes.
func DefaultAccountMap() *AccountMap {
	return &AccountMap{
		ReceivableCode:     "1200",
		PayableCode:        "2100",
		CashCode:           "1100",
		RevenueCode:        "4100",
		TaxPayableCode:     "2300",
		TaxReceivableCode:  "1300",
		GRClearingCode:     "2150",
		DepreciationCode:   "5940",
		AccumulatedDepCode: "1590",
	}
}

// Resolve binds every code to an account id.
func (m *AccountMap) Resolve(ctx context.Context, resolver journals.AccountCodeResolver) error {
	bind := func(code string, dest *int64) error {
		id, err := resolver.AccountIDByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("integration: resolve account %s: %w", code, err)
		}
		*dest = id
		return nil
	}
	for _, pair := range []struct {
		code string
		dest *int64
	}{
		{m.ReceivableCode, &m.receivableID},
		{m.PayableCode, &m.payableID},
		{m.CashCode, &m.cashID},
		{m.RevenueCode, &m.revenueID},
		{m.TaxPayableCode, &m.taxPayableID},
		{m.TaxReceivableCode, &m.taxReceivableID},
		{m.GRClearingCode, &m.grClearingID},
		{m.DepreciationCode, &m.depreciationID},
		{m.AccumulatedDepCode, &m.accumulatedDepID},
	} {
		if err := bind(pair.code, pair.dest); err != nil {
			return err
		}
	}
	return nil
}

func (m *AccountMap) salesInvoiceLines(subtotal, tax float64) []journals.PostingLineInput {
	lines := []journals.PostingLineInput{
		{AccountID: m.receivableID, Debit: round2(subtotal + tax)},
		{AccountID: m.revenueID, Credit: round2(subtotal)},
	}
	if tax > 0 {
		lines = append(lines, journals.PostingLineInput{AccountID: m.taxPayableID, Credit: round2(tax)})
	}
	return lines
}

func (m *AccountMap) purchaseInvoiceLines(subtotal, tax float64) []journals.PostingLineInput {
	lines := []journals.PostingLineInput{
		{AccountID: m.grClearingID, Debit: round2(subtotal)},
		{AccountID: m.payableID, Credit: round2(subtotal + tax)},
	}
	if tax > 0 {
		lines = append(lines, journals.PostingLineInput{AccountID: m.taxReceivableID, Debit: round2(tax)})
	}
	return lines
}

func (m *AccountMap) salesPaymentLines(amount float64) []journals.PostingLineInput {
	return []journals.PostingLineInput{
		{AccountID: m.cashID, Debit: round2(amount)},
		{AccountID: m.receivableID, Credit: round2(amount)},
	}
}

func (m *AccountMap) purchasePaymentLines(amount float64) []journals.PostingLineInput {
	return []journals.PostingLineInput{
		{AccountID: m.payableID, Debit: round2(amount)},
		{AccountID: m.cashID, Credit: round2(amount)},
	}
}

func (m *AccountMap) depreciationLines(amount float64) []journals.PostingLineInput {
	return []journals.PostingLineInput{
		{AccountID: m.depreciationID, Debit: round2(amount)},
		{AccountID: m.accumulatedDepID, Credit: round2(amount)},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
