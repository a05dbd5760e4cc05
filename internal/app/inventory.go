package app

import (
	"context"

	"github.com/forge-erp/forge-erp/internal/costing"
	"github.com/forge-erp/forge-erp/internal/ledger/reports"
)

type inventoryBalance struct {
	reports   *reports.Service
	accountID int64
}

// NewInventoryBalance exposes the ledger's inventory account balance to the
// costing reconciliation.
func NewInventoryBalance(reportsSvc *reports.Service, accountID int64) costing.InventoryBalancePort {
	return inventoryBalance{reports: reportsSvc, accountID: accountID}
}

func (b inventoryBalance) InventoryBalance(ctx context.Context) (float64, error) {
	result, err := b.reports.AccountBalance(ctx, b.accountID, nil, nil)
	if err != nil {
		return 0, err
	}
	return result.Balance, nil
}
