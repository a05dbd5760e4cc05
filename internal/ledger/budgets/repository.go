package budgets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

// Repository encapsulates DB operations for budgets.
type Repository interface {
	ListForPeriod(ctx context.Context, year, month int) ([]Budget, error)
	Upsert(ctx context.Context, b Budget) (Budget, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const budgetColumns = `id, account_id, year, month, amount, created_at, updated_at`

func (r *repository) ListForPeriod(ctx context.Context, year, month int) ([]Budget, error) {
	rows, err := r.db.Query(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE year=$1 AND month=$2 ORDER BY account_id ASC`, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.AccountID, &b.Year, &b.Month, &b.Amount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces the target for (account, year, month).
func (r *repository) Upsert(ctx context.Context, b Budget) (Budget, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO budgets (account_id, year, month, amount)
VALUES ($1,$2,$3,$4)
ON CONFLICT (account_id, year, month) DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
RETURNING `+budgetColumns, b.AccountID, b.Year, b.Month, b.Amount).
		Scan(&b.ID, &b.AccountID, &b.Year, &b.Month, &b.Amount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Budget{}, shared.ErrBudgetNotFound
		}
		return Budget{}, err
	}
	return b, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM budgets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrBudgetNotFound
	}
	return nil
}
