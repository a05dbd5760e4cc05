package costing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forge-erp/forge-erp/internal/ledger/journals"
)

// Repository is the persistence boundary for the costing engine.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ItemValuations(ctx context.Context) ([]ItemValuation, error)
	CompletedOrderCosts(ctx context.Context, start, end time.Time) ([]ProductionOrderCost, error)
	ListMovements(ctx context.Context, variantID int64, limit int) ([]Movement, error)
}

// TxRepository exposes the operations of one movement transaction. Ledger()
// hands back a journal session bound to the same transaction, so the stock
// mutation and its posting commit or roll back together.
type TxRepository interface {
	LockItemCost(ctx context.Context, variantID int64) (ItemCost, error)
	UpsertItemCost(ctx context.Context, cost ItemCost) error
	OnHand(ctx context.Context, variantID int64) (float64, error)
	AdjustStock(ctx context.Context, variantID, locationID int64, delta float64) (float64, error)
	InsertMovement(ctx context.Context, m Movement) (int64, error)
	Ledger() journals.TxRepository
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	session := &txSession{tx: tx}
	if err := fn(ctx, session); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// ItemValuations sums on-hand quantity per item and values it at WAC,
// falling back to the latest purchase price for items never costed.
func (r *repository) ItemValuations(ctx context.Context) ([]ItemValuation, error) {
	rows, err := r.db.Query(ctx, `SELECT i.id, i.sku, i.name,
COALESCE(sl.qty, 0),
CASE WHEN COALESCE(ic.wac, 0) > 0 THEN ic.wac ELSE COALESCE(ic.purchase_price, i.purchase_price, 0) END
FROM items i
LEFT JOIN (
	SELECT variant_id, SUM(qty) AS qty FROM stock_levels GROUP BY variant_id
) sl ON sl.variant_id = i.id
LEFT JOIN item_costs ic ON ic.variant_id = i.id
ORDER BY i.sku ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ItemValuation
	for rows.Next() {
		var v ItemValuation
		if err := rows.Scan(&v.VariantID, &v.SKU, &v.Name, &v.Quantity, &v.UnitCost); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CompletedOrderCosts aggregates material, labor, and machine cost for
// production orders completed inside the range. Material issues carry the
// order number as their movement reference.
func (r *repository) CompletedOrderCosts(ctx context.Context, start, end time.Time) ([]ProductionOrderCost, error) {
	rows, err := r.db.Query(ctx, `SELECT o.id, o.order_number, o.completed_at,
COALESCE(mat.cost, 0), COALESCE(lab.cost, 0), COALESCE(mac.cost, 0)
FROM production_orders o
LEFT JOIN (
	SELECT reference, SUM(quantity * unit_cost) AS cost
	FROM stock_movements WHERE kind = 'ISSUE' GROUP BY reference
) mat ON mat.reference = o.order_number
LEFT JOIN (
	SELECT order_id, SUM(hours * hourly_rate) AS cost FROM labor_entries GROUP BY order_id
) lab ON lab.order_id = o.id
LEFT JOIN (
	SELECT order_id, SUM(hours * hourly_rate) AS cost FROM machine_usage GROUP BY order_id
) mac ON mac.order_id = o.id
WHERE o.status = 'COMPLETED' AND o.completed_at >= $1 AND o.completed_at <= $2
ORDER BY o.completed_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductionOrderCost
	for rows.Next() {
		var c ProductionOrderCost
		if err := rows.Scan(&c.OrderID, &c.OrderNumber, &c.CompletedAt, &c.MaterialCost, &c.LaborCost, &c.MachineCost); err != nil {
			return nil, err
		}
		c.TotalCost = c.MaterialCost + c.LaborCost + c.MachineCost
		out = append(out, c)
	}
	return out, rows.Err()
}

const movementColumns = `id, kind, variant_id, from_location_id, to_location_id, quantity, unit_cost, reference, occurred_at, created_by, created_at`

func (r *repository) ListMovements(ctx context.Context, variantID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements
WHERE ($1 = 0 OR variant_id = $1) ORDER BY occurred_at DESC, id DESC LIMIT $2`, variantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var m Movement
		var from, to *int64
		if err := rows.Scan(&m.ID, &m.Kind, &m.VariantID, &from, &to, &m.Quantity, &m.UnitCost, &m.Reference, &m.OccurredAt, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		if from != nil {
			m.FromLocationID = *from
		}
		if to != nil {
			m.ToLocationID = *to
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type txSession struct {
	tx pgx.Tx
}

// LockItemCost upserts the item's cost row and holds its lock for the rest
// of the transaction, serialising concurrent movements of the same item.
// The foreign key to items surfaces unknown variants as ErrItemNotFound.
func (s *txSession) LockItemCost(ctx context.Context, variantID int64) (ItemCost, error) {
	var c ItemCost
	err := s.tx.QueryRow(ctx, `INSERT INTO item_costs (variant_id, wac, purchase_price)
VALUES ($1, 0, 0)
ON CONFLICT (variant_id) DO UPDATE SET updated_at = NOW()
RETURNING variant_id, wac, purchase_price, updated_at`, variantID).
		Scan(&c.VariantID, &c.WAC, &c.PurchasePrice, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ItemCost{}, ErrItemNotFound
		}
		return ItemCost{}, err
	}
	return c, nil
}

func (s *txSession) UpsertItemCost(ctx context.Context, cost ItemCost) error {
	_, err := s.tx.Exec(ctx, `UPDATE item_costs SET wac=$2, purchase_price=$3, updated_at=NOW()
WHERE variant_id=$1`, cost.VariantID, cost.WAC, cost.PurchasePrice)
	return err
}

func (s *txSession) OnHand(ctx context.Context, variantID int64) (float64, error) {
	var qty float64
	err := s.tx.QueryRow(ctx, `SELECT COALESCE(SUM(qty), 0) FROM stock_levels WHERE variant_id=$1`, variantID).Scan(&qty)
	return qty, err
}

func (s *txSession) AdjustStock(ctx context.Context, variantID, locationID int64, delta float64) (float64, error) {
	var qty float64
	err := s.tx.QueryRow(ctx, `INSERT INTO stock_levels (variant_id, location_id, qty)
VALUES ($1,$2,$3)
ON CONFLICT (variant_id, location_id) DO UPDATE SET qty = stock_levels.qty + EXCLUDED.qty, updated_at = NOW()
RETURNING qty`, variantID, locationID, delta).Scan(&qty)
	return qty, err
}

func (s *txSession) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO stock_movements (kind, variant_id, from_location_id, to_location_id, quantity, unit_cost, reference, occurred_at, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		m.Kind, m.VariantID, nullLocation(m.FromLocationID), nullLocation(m.ToLocationID),
		m.Quantity, m.UnitCost, m.Reference, m.OccurredAt, m.CreatedBy).Scan(&id)
	return id, err
}

// Ledger exposes the journal posting operations over this transaction.
func (s *txSession) Ledger() journals.TxRepository {
	return journals.NewTxSession(s.tx)
}

func nullLocation(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
