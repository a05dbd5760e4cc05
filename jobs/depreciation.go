package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/forge-erp/forge-erp/internal/integration"
)

// NewDepreciationHandler returns the handler for monthly depreciation runs.
// An empty payload depreciates the previous calendar month.
func NewDepreciationHandler(logger *slog.Logger, svc *integration.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload DepreciationPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}
		year, month := payload.Year, time.Month(payload.Month)
		if year == 0 || payload.Month == 0 {
			year, month = PreviousMonth(time.Now())
		}
		posted, err := svc.DepreciationRun(ctx, year, month, payload.ActorID)
		if err != nil {
			logger.Error("depreciation run failed",
				slog.Int("year", year),
				slog.Int("month", int(month)),
				slog.Any("error", err))
			return err
		}
		logger.Info("depreciation run done",
			slog.Int("year", year),
			slog.Int("month", int(month)),
			slog.Int("posted", posted))
		return nil
	}
}
