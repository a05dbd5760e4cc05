package reports

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteTrialBalanceCSV renders the trial balance as CSV with grouped
// thousand separators for human consumption.
func WriteTrialBalanceCSV(w io.Writer, tb TrialBalance) error {
	printer := message.NewPrinter(language.English)
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"code", "name", "type", "debit", "credit", "debit_balance", "credit_balance"}); err != nil {
		return err
	}
	for _, row := range tb.Rows {
		record := []string{
			row.Code,
			row.Name,
			row.Type,
			printer.Sprintf("%.2f", row.Debit),
			printer.Sprintf("%.2f", row.Credit),
			printer.Sprintf("%.2f", row.DebitBalance),
			printer.Sprintf("%.2f", row.CreditBalance),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	totals := []string{
		"", "TOTAL", "",
		printer.Sprintf("%.2f", tb.TotalDebit),
		printer.Sprintf("%.2f", tb.TotalCredit),
		printer.Sprintf("%.2f", tb.TotalDebitBalances),
		printer.Sprintf("%.2f", tb.TotalCreditBalances),
	}
	if err := cw.Write(totals); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
