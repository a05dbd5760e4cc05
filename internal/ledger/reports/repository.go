package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
)

// ReadRepository aggregates posted journal lines. All queries are read-only
// and observe committed data only.
type ReadRepository interface {
	AccountActivity(ctx context.Context, start, end *time.Time) ([]AccountActivity, error)
	SingleAccountActivity(ctx context.Context, accountID int64, start, end *time.Time) (AccountActivity, error)
	BudgetActuals(ctx context.Context, year, month int) ([]BudgetActual, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) ReadRepository {
	return &repository{db: db}
}

const activityQuery = `SELECT a.id, a.code, a.name, a.type,
COALESCE(act.debit, 0), COALESCE(act.credit, 0)
FROM accounts a
LEFT JOIN (
	SELECT l.account_id, SUM(l.debit) AS debit, SUM(l.credit) AS credit
	FROM journal_lines l
	JOIN journal_entries e ON e.id = l.je_id
	WHERE ($1::date IS NULL OR e.entry_date >= $1)
	  AND ($2::date IS NULL OR e.entry_date <= $2)
	GROUP BY l.account_id
) act ON act.account_id = a.id`

// AccountActivity sums debits and credits per account inside the range.
// Accounts without postings in range come back with zero activity so the
// builders can decide whether to list them.
func (r *repository) AccountActivity(ctx context.Context, start, end *time.Time) ([]AccountActivity, error) {
	rows, err := r.db.Query(ctx, activityQuery+` ORDER BY a.code ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountActivity
	for rows.Next() {
		var a AccountActivity
		var typ string
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &typ, &a.Debit, &a.Credit); err != nil {
			return nil, err
		}
		a.Type = accounts.AccountType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) SingleAccountActivity(ctx context.Context, accountID int64, start, end *time.Time) (AccountActivity, error) {
	var a AccountActivity
	var typ string
	err := r.db.QueryRow(ctx, activityQuery+` WHERE a.id = $3`, start, end, accountID).
		Scan(&a.AccountID, &a.Code, &a.Name, &typ, &a.Debit, &a.Credit)
	if err != nil {
		return AccountActivity{}, err
	}
	a.Type = accounts.AccountType(typ)
	return a, nil
}

// BudgetActuals joins budget targets with the month's posted activity,
// signing actuals by the account's normal side.
func (r *repository) BudgetActuals(ctx context.Context, year, month int) ([]BudgetActual, error) {
	rows, err := r.db.Query(ctx, `SELECT b.account_id, a.code, a.name, a.type, b.amount,
COALESCE(act.debit, 0), COALESCE(act.credit, 0)
FROM budgets b
JOIN accounts a ON a.id = b.account_id
LEFT JOIN (
	SELECT l.account_id, SUM(l.debit) AS debit, SUM(l.credit) AS credit
	FROM journal_lines l
	JOIN journal_entries e ON e.id = l.je_id
	WHERE EXTRACT(YEAR FROM e.entry_date) = $1
	  AND EXTRACT(MONTH FROM e.entry_date) = $2
	GROUP BY l.account_id
) act ON act.account_id = b.account_id
WHERE b.year = $1 AND b.month = $2
ORDER BY a.code ASC`, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BudgetActual
	for rows.Next() {
		var row BudgetActual
		var typ string
		var debit, credit float64
		if err := rows.Scan(&row.AccountID, &row.Code, &row.Name, &typ, &row.Budget, &debit, &credit); err != nil {
			return nil, err
		}
		row.Actual = (debit - credit) * accounts.NormalSide(accounts.AccountType(typ))
		out = append(out, row)
	}
	return out, rows.Err()
}
