package budgets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeBudgetRepo struct {
	rows   map[int64]Budget
	nextID int64
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{rows: map[int64]Budget{}}
}

func (r *fakeBudgetRepo) ListForPeriod(_ context.Context, year, month int) ([]Budget, error) {
	var out []Budget
	for _, b := range r.rows {
		if b.Year == year && b.Month == month {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBudgetRepo) Upsert(_ context.Context, b Budget) (Budget, error) {
	for id, existing := range r.rows {
		if existing.AccountID == b.AccountID && existing.Year == b.Year && existing.Month == b.Month {
			existing.Amount = b.Amount
			r.rows[id] = existing
			return existing, nil
		}
	}
	r.nextID++
	b.ID = r.nextID
	r.rows[b.ID] = b
	return b, nil
}

func (r *fakeBudgetRepo) Delete(_ context.Context, id int64) error {
	delete(r.rows, id)
	return nil
}

func TestSetUpsertsPerAccountMonth(t *testing.T) {
	svc := NewService(newFakeBudgetRepo())
	ctx := context.Background()

	first, err := svc.Set(ctx, SetInput{AccountID: 5, Year: 2025, Month: 3, Amount: 1000})
	require.NoError(t, err)

	// Same key overwrites the target instead of duplicating.
	second, err := svc.Set(ctx, SetInput{AccountID: 5, Year: 2025, Month: 3, Amount: 1500})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.InDelta(t, 1500.0, second.Amount, 1e-9)

	rows, err := svc.ListForPeriod(ctx, 2025, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestSetValidation(t *testing.T) {
	svc := NewService(newFakeBudgetRepo())
	ctx := context.Background()

	_, err := svc.Set(ctx, SetInput{Year: 2025, Month: 3, Amount: 100})
	require.Error(t, err)
	_, err = svc.Set(ctx, SetInput{AccountID: 1, Year: 2025, Month: 0, Amount: 100})
	require.Error(t, err)
	_, err = svc.Set(ctx, SetInput{AccountID: 1, Year: 2025, Month: 3, Amount: -1})
	require.Error(t, err)
}
