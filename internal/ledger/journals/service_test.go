package journals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/forge-erp/forge-erp/internal/ledger/periods"
	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

type storedEntry struct {
	entry JournalEntry
	lines []JournalLine
}

type fakeTx struct {
	closedMonths map[string]bool
	seq          int
	entries      map[int64]*storedEntry
	links        map[string]int64
	rolledBack   bool
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		closedMonths: map[string]bool{},
		entries:      map[int64]*storedEntry{},
		links:        map[string]int64{},
	}
}

func monthKey(date time.Time) string {
	return fmt.Sprintf("%d-%02d", date.Year(), int(date.Month()))
}

func (f *fakeTx) EnsurePeriodForPosting(_ context.Context, date time.Time) (periods.Period, error) {
	status := periods.PeriodStatusOpen
	if f.closedMonths[monthKey(date)] {
		status = periods.PeriodStatusClosed
	}
	return periods.Period{ID: 1, Year: date.Year(), Month: int(date.Month()), Status: status}, nil
}

func (f *fakeTx) NextOpenPeriodAfter(_ context.Context, date time.Time) (periods.Period, error) {
	cursor := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		if !f.closedMonths[monthKey(cursor)] {
			return periods.Period{ID: 1, Year: cursor.Year(), Month: int(cursor.Month()), Status: periods.PeriodStatusOpen}, nil
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return periods.Period{}, shared.ErrPeriodNotFound
}

func (f *fakeTx) NextEntryNumber(_ context.Context, year int) (string, error) {
	f.seq++
	return fmt.Sprintf("JE-%d-%04d", year, f.seq), nil
}

func (f *fakeTx) InsertJournalEntry(_ context.Context, in PostingInput, number string) (JournalEntry, error) {
	entry := JournalEntry{
		ID:            int64(len(f.entries) + 1),
		EntryNumber:   number,
		Date:          in.Date,
		Memo:          in.Memo,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		CreatedBy:     in.CreatedBy,
	}
	f.entries[entry.ID] = &storedEntry{entry: entry}
	return entry, nil
}

func (f *fakeTx) InsertJournalLines(_ context.Context, entryID int64, lines []PostingLineInput) error {
	stored := f.entries[entryID]
	for _, line := range lines {
		stored.lines = append(stored.lines, JournalLine{
			JournalID: entryID,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	return nil
}

func linkKey(refType ReferenceType, refID uuid.UUID) string {
	return string(refType) + ":" + refID.String()
}

func (f *fakeTx) LinkSource(_ context.Context, refType ReferenceType, refID uuid.UUID, entryID int64) error {
	key := linkKey(refType, refID)
	if _, exists := f.links[key]; exists {
		return shared.ErrSourceConflict
	}
	f.links[key] = entryID
	return nil
}

func (f *fakeTx) GetBySourceForUpdate(_ context.Context, refType ReferenceType, refID uuid.UUID) (JournalEntry, []JournalLine, error) {
	entryID, ok := f.links[linkKey(refType, refID)]
	if !ok {
		return JournalEntry{}, nil, shared.ErrJournalNotFound
	}
	stored := f.entries[entryID]
	return stored.entry, stored.lines, nil
}

func (f *fakeTx) DeleteEntry(_ context.Context, entryID int64) error {
	if _, ok := f.entries[entryID]; !ok {
		return shared.ErrJournalNotFound
	}
	delete(f.entries, entryID)
	for key, id := range f.links {
		if id == entryID {
			delete(f.links, key)
		}
	}
	return nil
}

type fakeJournalRepo struct {
	tx *fakeTx
}

func (r *fakeJournalRepo) List(context.Context, int) ([]JournalEntry, error) { return nil, nil }

func (r *fakeJournalRepo) GetWithLines(_ context.Context, entryID int64) (JournalEntry, error) {
	stored, ok := r.tx.entries[entryID]
	if !ok {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	entry := stored.entry
	entry.Lines = stored.lines
	return entry, nil
}

func (r *fakeJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := fn(ctx, r.tx)
	if err != nil {
		r.tx.rolledBack = true
	}
	return err
}

func newJournalService(tx *fakeTx) *Service {
	svc := NewService(&fakeJournalRepo{tx: tx}, nil, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 5, 15, 9, 0, 0, 0, time.UTC) })
	return svc
}

func balancedInput(date time.Time) PostingInput {
	return PostingInput{
		Date:          date,
		Memo:          "materials receipt",
		ReferenceType: ReferenceManual,
		Lines: []PostingLineInput{
			{AccountID: 1, Debit: 500},
			{AccountID: 2, Credit: 500},
		},
	}
}

func TestPostAssignsSequentialNumbers(t *testing.T) {
	tx := newFakeTx()
	svc := newJournalService(tx)
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.Post(ctx, balancedInput(date))
	require.NoError(t, err)
	require.Equal(t, "JE-2025-0001", first.EntryNumber)
	require.NotEqual(t, uuid.Nil, first.ReferenceID)

	second, err := svc.Post(ctx, balancedInput(date))
	require.NoError(t, err)
	require.Equal(t, "JE-2025-0002", second.EntryNumber)
	require.Len(t, second.Lines, 2)
}

func TestPostRejectsUnbalanced(t *testing.T) {
	svc := newJournalService(newFakeTx())
	input := balancedInput(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	input.Lines[1].Credit = 499.50

	_, err := svc.Post(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
}

func TestPostToleratesRoundingDrift(t *testing.T) {
	svc := newJournalService(newFakeTx())
	input := balancedInput(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	input.Lines[1].Credit = 499.995

	_, err := svc.Post(context.Background(), input)
	require.NoError(t, err)
}

func TestPostRejectsTooFewLines(t *testing.T) {
	svc := newJournalService(newFakeTx())
	input := balancedInput(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	input.Lines = input.Lines[:1]

	_, err := svc.Post(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrTooFewLines)
}

func TestPostRejectsBothSidesOnOneLine(t *testing.T) {
	svc := newJournalService(newFakeTx())
	input := balancedInput(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	input.Lines[0].Credit = input.Lines[0].Debit

	_, err := svc.Post(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrInvalidLine)
}

func TestPostClosedPeriodFails(t *testing.T) {
	tx := newFakeTx()
	date := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	tx.closedMonths[monthKey(date)] = true
	svc := newJournalService(tx)

	_, err := svc.Post(context.Background(), balancedInput(date))
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
	require.True(t, tx.rolledBack)
	require.Empty(t, tx.entries)
}

func TestPostRequiresReferenceIDForDocuments(t *testing.T) {
	svc := newJournalService(newFakeTx())
	input := balancedInput(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	input.ReferenceType = ReferenceSalesInvoice

	_, err := svc.Post(context.Background(), input)
	require.Error(t, err)
}

func TestPostDuplicateSourceConflicts(t *testing.T) {
	tx := newFakeTx()
	svc := newJournalService(tx)
	ctx := context.Background()

	input := balancedInput(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	input.ReferenceType = ReferenceSalesInvoice
	input.ReferenceID = uuid.New()

	_, err := svc.Post(ctx, input)
	require.NoError(t, err)

	_, err = svc.Post(ctx, input)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	require.Len(t, tx.links, 1)
}

func TestDeleteBySourceInOpenPeriodDeletes(t *testing.T) {
	tx := newFakeTx()
	svc := newJournalService(tx)
	ctx := context.Background()

	input := balancedInput(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	input.ReferenceType = ReferencePurchaseInvoice
	input.ReferenceID = uuid.New()
	_, err := svc.Post(ctx, input)
	require.NoError(t, err)

	_, err = svc.DeleteBySource(ctx, DeleteBySourceInput{
		ReferenceType: ReferencePurchaseInvoice,
		ReferenceID:   input.ReferenceID,
		ActorID:       4,
	})
	require.NoError(t, err)
	require.Empty(t, tx.entries)
	require.Empty(t, tx.links)
}

func TestDeleteBySourceInClosedPeriodReverses(t *testing.T) {
	tx := newFakeTx()
	svc := newJournalService(tx)
	ctx := context.Background()

	date := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	input := balancedInput(date)
	input.ReferenceType = ReferencePurchaseInvoice
	input.ReferenceID = uuid.New()
	original, err := svc.Post(ctx, input)
	require.NoError(t, err)

	// Close February; the reversal lands in the current open month.
	tx.closedMonths[monthKey(date)] = true

	reversal, err := svc.DeleteBySource(ctx, DeleteBySourceInput{
		ReferenceType: ReferencePurchaseInvoice,
		ReferenceID:   input.ReferenceID,
		ActorID:       4,
	})
	require.NoError(t, err)
	require.NotEqual(t, original.ID, reversal.ID)
	require.Equal(t, time.May, reversal.Date.Month())

	// Original survives, sides are mirrored.
	require.Contains(t, tx.entries, original.ID)
	require.Len(t, reversal.Lines, 2)
	require.InDelta(t, 500.0, reversal.Lines[0].Credit, 1e-9)
	require.InDelta(t, 500.0, reversal.Lines[1].Debit, 1e-9)
}

func TestDeleteBySourceReversalSkipsClosedCurrentMonth(t *testing.T) {
	tx := newFakeTx()
	svc := newJournalService(tx)
	ctx := context.Background()

	date := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	input := balancedInput(date)
	input.ReferenceType = ReferencePurchaseInvoice
	input.ReferenceID = uuid.New()
	original, err := svc.Post(ctx, input)
	require.NoError(t, err)

	// February holds the entry, May is the current month. Close both so
	// the reversal has to move forward to June.
	tx.closedMonths[monthKey(date)] = true
	tx.closedMonths["2025-05"] = true

	reversal, err := svc.DeleteBySource(ctx, DeleteBySourceInput{
		ReferenceType: ReferencePurchaseInvoice,
		ReferenceID:   input.ReferenceID,
		ActorID:       4,
	})
	require.NoError(t, err)
	require.Equal(t, time.June, reversal.Date.Month())
	require.Equal(t, 1, reversal.Date.Day())
	require.Contains(t, tx.entries, original.ID)
}

func TestDeleteBySourceMissingEntry(t *testing.T) {
	svc := newJournalService(newFakeTx())
	_, err := svc.DeleteBySource(context.Background(), DeleteBySourceInput{
		ReferenceType: ReferenceSalesInvoice,
		ReferenceID:   uuid.New(),
	})
	require.ErrorIs(t, err, shared.ErrJournalNotFound)
}
