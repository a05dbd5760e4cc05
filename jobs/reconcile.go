package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/forge-erp/forge-erp/internal/costing"
)

// NewInventoryReconcileHandler returns the nightly drift check between the
// rolling stock valuation and the ledger's inventory balance. Drift is
// reported, not corrected: write-offs stay a deliberate adjustment movement.
func NewInventoryReconcileHandler(logger *slog.Logger, svc *costing.Service, ledger costing.InventoryBalancePort, metrics *Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		recon, err := svc.Reconcile(ctx, ledger)
		if err != nil {
			logger.Error("inventory reconciliation failed", slog.Any("error", err))
			return err
		}
		metrics.SetDrift(recon.Drift)
		if !recon.InBalance {
			logger.Error("inventory ledger drift detected",
				slog.Float64("valuation", recon.ValuationTotal),
				slog.Float64("ledger", recon.LedgerBalance),
				slog.Float64("drift", recon.Drift))
			return nil
		}
		logger.Info("inventory reconciliation clean",
			slog.Float64("valuation", recon.ValuationTotal))
		return nil
	}
}
