package costing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/forge-erp/forge-erp/internal/ledger/journals"
	"github.com/forge-erp/forge-erp/internal/ledger/periods"
	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

type fakeLedgerTx struct {
	closed  bool
	linked  map[string]bool
	entries []journals.PostingInput
}

func (f *fakeLedgerTx) EnsurePeriodForPosting(_ context.Context, date time.Time) (periods.Period, error) {
	status := periods.PeriodStatusOpen
	if f.closed {
		status = periods.PeriodStatusClosed
	}
	return periods.Period{Year: date.Year(), Month: int(date.Month()), Status: status}, nil
}

func (f *fakeLedgerTx) NextOpenPeriodAfter(_ context.Context, date time.Time) (periods.Period, error) {
	return periods.Period{Year: date.Year(), Month: int(date.Month()), Status: periods.PeriodStatusOpen}, nil
}

func (f *fakeLedgerTx) NextEntryNumber(_ context.Context, year int) (string, error) {
	return fmt.Sprintf("JE-%d-%04d", year, len(f.entries)+1), nil
}

func (f *fakeLedgerTx) InsertJournalEntry(_ context.Context, in journals.PostingInput, number string) (journals.JournalEntry, error) {
	f.entries = append(f.entries, in)
	return journals.JournalEntry{
		ID:            int64(len(f.entries)),
		EntryNumber:   number,
		Date:          in.Date,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
	}, nil
}

func (f *fakeLedgerTx) InsertJournalLines(context.Context, int64, []journals.PostingLineInput) error {
	return nil
}

func (f *fakeLedgerTx) LinkSource(_ context.Context, refType journals.ReferenceType, refID uuid.UUID, _ int64) error {
	key := string(refType) + refID.String()
	if f.linked == nil {
		f.linked = map[string]bool{}
	}
	if f.linked[key] {
		return shared.ErrSourceConflict
	}
	f.linked[key] = true
	return nil
}

func (f *fakeLedgerTx) GetBySourceForUpdate(context.Context, journals.ReferenceType, uuid.UUID) (journals.JournalEntry, []journals.JournalLine, error) {
	return journals.JournalEntry{}, nil, shared.ErrJournalNotFound
}

func (f *fakeLedgerTx) DeleteEntry(context.Context, int64) error { return nil }

type stockKey struct {
	variant  int64
	location int64
}

type fakeCostingTx struct {
	costs     map[int64]ItemCost
	stock     map[stockKey]float64
	movements []Movement
	ledger    *fakeLedgerTx
}

func newFakeCostingTx() *fakeCostingTx {
	return &fakeCostingTx{
		costs:  map[int64]ItemCost{},
		stock:  map[stockKey]float64{},
		ledger: &fakeLedgerTx{},
	}
}

func (f *fakeCostingTx) LockItemCost(_ context.Context, variantID int64) (ItemCost, error) {
	cost, ok := f.costs[variantID]
	if !ok {
		cost = ItemCost{VariantID: variantID}
		f.costs[variantID] = cost
	}
	return cost, nil
}

func (f *fakeCostingTx) UpsertItemCost(_ context.Context, cost ItemCost) error {
	f.costs[cost.VariantID] = cost
	return nil
}

func (f *fakeCostingTx) OnHand(_ context.Context, variantID int64) (float64, error) {
	var total float64
	for key, qty := range f.stock {
		if key.variant == variantID {
			total += qty
		}
	}
	return total, nil
}

func (f *fakeCostingTx) AdjustStock(_ context.Context, variantID, locationID int64, delta float64) (float64, error) {
	key := stockKey{variant: variantID, location: locationID}
	f.stock[key] += delta
	return f.stock[key], nil
}

func (f *fakeCostingTx) InsertMovement(_ context.Context, m Movement) (int64, error) {
	m.ID = int64(len(f.movements) + 1)
	f.movements = append(f.movements, m)
	return m.ID, nil
}

func (f *fakeCostingTx) Ledger() journals.TxRepository { return f.ledger }

type fakeRepo struct {
	tx *fakeCostingTx
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r.tx)
}

func (r *fakeRepo) ItemValuations(context.Context) ([]ItemValuation, error) {
	var out []ItemValuation
	for id, cost := range r.tx.costs {
		qty, _ := r.tx.OnHand(context.Background(), id)
		out = append(out, ItemValuation{VariantID: id, Quantity: qty, UnitCost: cost.EffectiveUnitCost()})
	}
	return out, nil
}

func (r *fakeRepo) CompletedOrderCosts(context.Context, time.Time, time.Time) ([]ProductionOrderCost, error) {
	return nil, nil
}

func (r *fakeRepo) ListMovements(context.Context, int64, int) ([]Movement, error) {
	return r.tx.movements, nil
}

func newTestService(t *testing.T, tx *fakeCostingTx) *Service {
	t.Helper()
	pm := journals.DefaultMovementPostingMap()
	require.NoError(t, pm.Resolve(context.Background(), staticResolver{}))
	svc := NewService(&fakeRepo{tx: tx}, pm, nil, nil, nil, false)
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) })
	return svc
}

type staticResolver struct{}

func (staticResolver) AccountIDByCode(_ context.Context, code string) (int64, error) {
	switch code {
	case "1400":
		return 14, nil
	case "1450":
		return 15, nil
	case "2150":
		return 21, nil
	case "5920":
		return 59, nil
	case "5930":
		return 60, nil
	}
	return 0, fmt.Errorf("unknown code %s", code)
}

func TestApplyMovementReceiptRecomputesWAC(t *testing.T) {
	tx := newFakeCostingTx()
	svc := newTestService(t, tx)
	ctx := context.Background()

	first, err := svc.ApplyMovement(ctx, MovementInput{
		Kind: journals.MovementPurchase, VariantID: 1, ToLocationID: 10,
		Quantity: 10, UnitCost: 50, Reference: "GR-001", ActorID: 7,
	})
	require.NoError(t, err)
	require.InDelta(t, 50.0, first.WAC, 1e-9)
	require.InDelta(t, 10.0, first.OnHand, 1e-9)
	require.True(t, first.Posted)

	second, err := svc.ApplyMovement(ctx, MovementInput{
		Kind: journals.MovementPurchase, VariantID: 1, ToLocationID: 10,
		Quantity: 5, UnitCost: 80, Reference: "GR-002", ActorID: 7,
	})
	require.NoError(t, err)
	require.InDelta(t, 60.0, second.WAC, 1e-9)
	require.InDelta(t, 15.0, second.OnHand, 1e-9)

	// Issues go out at WAC and do not move it.
	issue, err := svc.ApplyMovement(ctx, MovementInput{
		Kind: journals.MovementIssue, VariantID: 1, FromLocationID: 10,
		Quantity: 3, Reference: "PO-100", ActorID: 7,
	})
	require.NoError(t, err)
	require.InDelta(t, 60.0, issue.UnitCost, 1e-9)
	require.InDelta(t, 60.0, issue.WAC, 1e-9)
	require.InDelta(t, 12.0, issue.OnHand, 1e-9)

	require.Len(t, tx.ledger.entries, 3)
	posted := tx.ledger.entries[2]
	require.Equal(t, journals.ReferenceInventoryMovement, posted.ReferenceType)
	require.InDelta(t, 180.0, posted.Lines[0].Debit, 1e-9)
	require.Equal(t, int64(15), posted.Lines[0].AccountID)
	require.Equal(t, int64(14), posted.Lines[1].AccountID)
}

func TestApplyMovementNegativeStockRejected(t *testing.T) {
	tx := newFakeCostingTx()
	svc := newTestService(t, tx)

	_, err := svc.ApplyMovement(context.Background(), MovementInput{
		Kind: journals.MovementIssue, VariantID: 1, FromLocationID: 10,
		Quantity: 2, Reference: "PO-X", ActorID: 1,
	})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.Empty(t, tx.movements)
	require.Empty(t, tx.ledger.entries)
}

func TestApplyMovementTransferMovesQuantityOnly(t *testing.T) {
	tx := newFakeCostingTx()
	svc := newTestService(t, tx)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{
		Kind: journals.MovementPurchase, VariantID: 2, ToLocationID: 10,
		Quantity: 4, UnitCost: 25, Reference: "GR-010", ActorID: 1,
	})
	require.NoError(t, err)

	res, err := svc.ApplyMovement(ctx, MovementInput{
		Kind: journals.MovementTransfer, VariantID: 2, FromLocationID: 10, ToLocationID: 11,
		Quantity: 4, Reference: "TR-001", ActorID: 1,
	})
	require.NoError(t, err)
	require.False(t, res.Posted)
	require.InDelta(t, 25.0, res.WAC, 1e-9)
	require.InDelta(t, 4.0, res.OnHand, 1e-9)
	require.Len(t, tx.ledger.entries, 1)
}

func TestApplyMovementAdjustmentWriteDownFlipsSides(t *testing.T) {
	tx := newFakeCostingTx()
	svc := newTestService(t, tx)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{
		Kind: journals.MovementPurchase, VariantID: 3, ToLocationID: 10,
		Quantity: 10, UnitCost: 8, Reference: "GR-020", ActorID: 1,
	})
	require.NoError(t, err)

	res, err := svc.ApplyMovement(ctx, MovementInput{
		Kind: journals.MovementAdjustment, VariantID: 3, FromLocationID: 10,
		Quantity: 2, Reference: "ADJ-001", ActorID: 1,
	})
	require.NoError(t, err)
	require.True(t, res.Posted)

	posted := tx.ledger.entries[1]
	// Write-down credits inventory, debits the adjustment account.
	require.Equal(t, int64(59), posted.Lines[0].AccountID)
	require.InDelta(t, 16.0, posted.Lines[0].Debit, 1e-9)
	require.Equal(t, int64(14), posted.Lines[1].AccountID)
	require.InDelta(t, 16.0, posted.Lines[1].Credit, 1e-9)
}

func TestApplyMovementClosedPeriodRollsBack(t *testing.T) {
	tx := newFakeCostingTx()
	tx.ledger.closed = true
	svc := newTestService(t, tx)

	_, err := svc.ApplyMovement(context.Background(), MovementInput{
		Kind: journals.MovementPurchase, VariantID: 1, ToLocationID: 10,
		Quantity: 1, UnitCost: 10, Reference: "GR-030", ActorID: 1,
	})
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
}

func TestApplyMovementValidation(t *testing.T) {
	svc := newTestService(t, newFakeCostingTx())
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{Kind: "BOGUS", VariantID: 1, Quantity: 1, Reference: "x"})
	require.ErrorIs(t, err, ErrInvalidMovementKind)

	_, err = svc.ApplyMovement(ctx, MovementInput{Kind: journals.MovementIssue, VariantID: 1, Quantity: 0, Reference: "x"})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.ApplyMovement(ctx, MovementInput{Kind: journals.MovementPurchase, VariantID: 1, Quantity: 1, UnitCost: -5, Reference: "x"})
	require.ErrorIs(t, err, ErrInvalidUnitCost)

	_, err = svc.ApplyMovement(ctx, MovementInput{Kind: journals.MovementIssue, VariantID: 1, Quantity: 1, Reference: "x"})
	require.ErrorIs(t, err, ErrLocationRequired)
}

func TestNextWACZeroTotalKeepsOld(t *testing.T) {
	require.InDelta(t, 12.5, NextWAC(5, 12.5, -5, 0), 1e-9)
}
