package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FixedAsset is one depreciable asset on the register.
type FixedAsset struct {
	ID            uuid.UUID
	Name          string
	AcquiredAt    time.Time
	MonthlyAmount float64
	Active        bool
}

// AssetRepository reads the fixed asset register.
type AssetRepository interface {
	ListDepreciable(ctx context.Context, asOf time.Time) ([]FixedAsset, error)
}

type assetRepository struct {
	db *pgxpool.Pool
}

func NewAssetRepository(db *pgxpool.Pool) AssetRepository {
	return &assetRepository{db: db}
}

// ListDepreciable returns active assets acquired on or before asOf with a
// positive monthly depreciation amount.
func (r *assetRepository) ListDepreciable(ctx context.Context, asOf time.Time) ([]FixedAsset, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, acquired_at, monthly_depreciation, active
FROM fixed_assets
WHERE active AND monthly_depreciation > 0 AND acquired_at <= $1
ORDER BY acquired_at ASC`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FixedAsset
	for rows.Next() {
		var a FixedAsset
		if err := rows.Scan(&a.ID, &a.Name, &a.AcquiredAt, &a.MonthlyAmount, &a.Active); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
