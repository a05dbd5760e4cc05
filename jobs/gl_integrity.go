package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewGLIntegrityHandler sweeps every posted entry for a debit/credit
// imbalance beyond the posting tolerance. A finding means a bug or manual
// database tampering, so the job fails loudly.
func NewGLIntegrityHandler(logger *slog.Logger, db *pgxpool.Pool) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		rows, err := db.Query(ctx, `SELECT e.id, e.entry_number, SUM(l.debit), SUM(l.credit)
FROM journal_entries e
JOIN journal_lines l ON l.je_id = e.id
GROUP BY e.id, e.entry_number
HAVING ABS(SUM(l.debit) - SUM(l.credit)) > 0.01`)
		if err != nil {
			return err
		}
		defer rows.Close()
		var violations int
		for rows.Next() {
			var id int64
			var number string
			var debit, credit float64
			if err := rows.Scan(&id, &number, &debit, &credit); err != nil {
				return err
			}
			violations++
			logger.Error("unbalanced journal entry",
				slog.Int64("entry_id", id),
				slog.String("entry_number", number),
				slog.Float64("debit", debit),
				slog.Float64("credit", credit))
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if violations > 0 {
			return fmt.Errorf("gl integrity: %d unbalanced entries", violations)
		}
		logger.Info("gl integrity sweep clean")
		return nil
	}
}
