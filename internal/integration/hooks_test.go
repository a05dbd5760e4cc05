package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/forge-erp/forge-erp/internal/ledger/journals"
	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

type fakeLedger struct {
	posted  []journals.PostingInput
	deleted []journals.DeleteBySourceInput
	linked  map[uuid.UUID]bool
}

func (f *fakeLedger) Post(_ context.Context, input journals.PostingInput) (journals.JournalEntry, error) {
	if f.linked == nil {
		f.linked = map[uuid.UUID]bool{}
	}
	if f.linked[input.ReferenceID] {
		return journals.JournalEntry{}, shared.ErrSourceAlreadyLinked
	}
	if err := input.Validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	f.linked[input.ReferenceID] = true
	f.posted = append(f.posted, input)
	return journals.JournalEntry{ID: int64(len(f.posted)), ReferenceType: input.ReferenceType, ReferenceID: input.ReferenceID}, nil
}

func (f *fakeLedger) DeleteBySource(_ context.Context, input journals.DeleteBySourceInput) (journals.JournalEntry, error) {
	f.deleted = append(f.deleted, input)
	return journals.JournalEntry{}, nil
}

type codeResolver map[string]int64

func (r codeResolver) AccountIDByCode(_ context.Context, code string) (int64, error) {
	return r[code], nil
}

type fakeAssets struct {
	assets []FixedAsset
}

func (f *fakeAssets) ListDepreciable(context.Context, time.Time) ([]FixedAsset, error) {
	return f.assets, nil
}

func resolvedAccountMap(t *testing.T) *AccountMap {
	t.Helper()
	m := DefaultAccountMap()
	resolver := codeResolver{
		"1200": 1, "2100": 2, "1100": 3, "4100": 4,
		"2300": 5, "1300": 6, "2150": 7, "5940": 8, "1590": 9,
	}
	require.NoError(t, m.Resolve(context.Background(), resolver))
	return m
}

func TestSalesInvoicePostedBalancesWithTax(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(nil, ledger, resolvedAccountMap(t), &fakeAssets{})

	_, err := svc.SalesInvoicePosted(context.Background(), InvoiceEvent{
		InvoiceID: uuid.New(),
		Number:    "INV-100",
		Date:      time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Subtotal:  1000,
		Tax:       110,
		ActorID:   3,
	})
	require.NoError(t, err)
	require.Len(t, ledger.posted, 1)

	input := ledger.posted[0]
	require.Equal(t, journals.ReferenceSalesInvoice, input.ReferenceType)
	require.Len(t, input.Lines, 3)
	require.InDelta(t, 1110.0, input.Lines[0].Debit, 1e-9)
	require.InDelta(t, 1000.0, input.Lines[1].Credit, 1e-9)
	require.InDelta(t, 110.0, input.Lines[2].Credit, 1e-9)
}

func TestPurchasePaymentMade(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(nil, ledger, resolvedAccountMap(t), &fakeAssets{})

	_, err := svc.PurchasePaymentMade(context.Background(), PaymentEvent{
		PaymentID: uuid.New(),
		Number:    "PAY-7",
		Date:      time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
		Amount:    250.50,
	})
	require.NoError(t, err)
	require.Len(t, ledger.posted, 1)
	require.InDelta(t, 250.50, ledger.posted[0].Lines[0].Debit, 1e-9)
	require.InDelta(t, 250.50, ledger.posted[0].Lines[1].Credit, 1e-9)
}

func TestInvoiceEventValidation(t *testing.T) {
	svc := NewService(nil, &fakeLedger{}, resolvedAccountMap(t), &fakeAssets{})
	ctx := context.Background()

	_, err := svc.SalesInvoicePosted(ctx, InvoiceEvent{Number: "x"})
	require.Error(t, err)

	_, err = svc.PurchaseInvoicePosted(ctx, InvoiceEvent{
		InvoiceID: uuid.New(),
		Date:      time.Now(),
		Subtotal:  -5,
	})
	require.Error(t, err)
}

func TestDepreciationRunIsIdempotent(t *testing.T) {
	ledger := &fakeLedger{}
	assets := &fakeAssets{assets: []FixedAsset{
		{ID: uuid.New(), Name: "CNC mill", MonthlyAmount: 1200},
		{ID: uuid.New(), Name: "Forklift", MonthlyAmount: 300},
	}}
	svc := NewService(nil, ledger, resolvedAccountMap(t), assets)
	ctx := context.Background()

	posted, err := svc.DepreciationRun(ctx, 2025, time.April, 1)
	require.NoError(t, err)
	require.Equal(t, 2, posted)

	// Second run must skip everything already posted.
	posted, err = svc.DepreciationRun(ctx, 2025, time.April, 1)
	require.NoError(t, err)
	require.Equal(t, 0, posted)
	require.Len(t, ledger.posted, 2)

	for _, input := range ledger.posted {
		require.Equal(t, journals.ReferenceDepreciation, input.ReferenceType)
		require.Len(t, input.Lines, 2)
		require.InDelta(t, input.Lines[0].Debit, input.Lines[1].Credit, 1e-9)
	}
}

func TestSalesInvoiceDeletedDelegates(t *testing.T) {
	ledger := &fakeLedger{}
	svc := NewService(nil, ledger, resolvedAccountMap(t), &fakeAssets{})

	id := uuid.New()
	_, err := svc.SalesInvoiceDeleted(context.Background(), id, 9)
	require.NoError(t, err)
	require.Len(t, ledger.deleted, 1)
	require.Equal(t, id, ledger.deleted[0].ReferenceID)
	require.Equal(t, journals.ReferenceSalesInvoice, ledger.deleted[0].ReferenceType)
}
