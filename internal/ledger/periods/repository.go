package periods

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

// Repository encapsulates DB operations for fiscal periods.
type Repository interface {
	List(ctx context.Context) ([]Period, error)
	Get(ctx context.Context, id int64) (Period, error)
	GetByYearMonth(ctx context.Context, year, month int) (Period, error)
	EnsureExists(ctx context.Context, year, month int) (Period, error)
	Close(ctx context.Context, id, closedBy int64) (Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, year, month, status, closed_by, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.ClosedBy, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods ORDER BY year ASC, month ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.ClosedBy, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE id=$1`, id))
}

func (r *repository) GetByYearMonth(ctx context.Context, year, month int) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE year=$1 AND month=$2`, year, month))
}

// EnsureExists creates the period OPEN when absent and returns the stored row
// either way. The upsert keeps concurrent first-posters from racing.
func (r *repository) EnsureExists(ctx context.Context, year, month int) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `INSERT INTO fiscal_periods (year, month, status)
VALUES ($1,$2,'OPEN')
ON CONFLICT (year, month) DO UPDATE SET updated_at = fiscal_periods.updated_at
RETURNING `+periodColumns, year, month))
}

// Close flips OPEN to CLOSED. The WHERE clause makes double closes fail.
func (r *repository) Close(ctx context.Context, id, closedBy int64) (Period, error) {
	period, err := scanPeriod(r.db.QueryRow(ctx, `UPDATE fiscal_periods
SET status='CLOSED', closed_by=$2, closed_at=NOW(), updated_at=NOW()
WHERE id=$1 AND status='OPEN'
RETURNING `+periodColumns, id, closedBy))
	if err != nil {
		if errors.Is(err, shared.ErrPeriodNotFound) {
			// Distinguish a missing period from a terminal one.
			if _, getErr := r.Get(ctx, id); getErr == nil {
				return Period{}, shared.ErrPeriodAlreadyClosed
			}
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return period, nil
}
