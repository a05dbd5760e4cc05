package journals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

type mapResolver map[string]int64

func (r mapResolver) AccountIDByCode(_ context.Context, code string) (int64, error) {
	id, ok := r[code]
	if !ok {
		return 0, shared.ErrAccountNotFound
	}
	return id, nil
}

func fullResolver() mapResolver {
	return mapResolver{"1400": 14, "1450": 15, "2150": 21, "5920": 59, "5930": 60}
}

func TestMovementPostingMapResolve(t *testing.T) {
	pm := DefaultMovementPostingMap()
	require.NoError(t, pm.Resolve(context.Background(), fullResolver()))
}

func TestMovementPostingMapResolveMissingAccount(t *testing.T) {
	pm := DefaultMovementPostingMap()
	resolver := fullResolver()
	delete(resolver, "5930")
	require.Error(t, pm.Resolve(context.Background(), resolver))
}

func TestMovementPostingMapResolveMissingRule(t *testing.T) {
	pm := NewMovementPostingMap(map[MovementKind]PostingRule{
		MovementPurchase: {DebitCode: "1400", CreditCode: "2150"},
	})
	err := pm.Resolve(context.Background(), fullResolver())
	require.ErrorIs(t, err, shared.ErrMovementUnmapped)
}

func TestMovementPostingMapLines(t *testing.T) {
	pm := DefaultMovementPostingMap()
	require.NoError(t, pm.Resolve(context.Background(), fullResolver()))

	lines, err := pm.Lines(MovementPurchase, 250)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, int64(14), lines[0].AccountID)
	require.InDelta(t, 250.0, lines[0].Debit, 1e-9)
	require.Equal(t, int64(21), lines[1].AccountID)
	require.InDelta(t, 250.0, lines[1].Credit, 1e-9)

	// Negative amounts flip sides.
	flipped, err := pm.Lines(MovementAdjustment, -40)
	require.NoError(t, err)
	require.Equal(t, int64(59), flipped[0].AccountID)
	require.InDelta(t, 40.0, flipped[0].Debit, 1e-9)
	require.Equal(t, int64(14), flipped[1].AccountID)

	// Transfers and zero amounts never post.
	none, err := pm.Lines(MovementTransfer, 100)
	require.NoError(t, err)
	require.Nil(t, none)
	none, err = pm.Lines(MovementIssue, 0)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestMovementPostingMapUnresolvedLines(t *testing.T) {
	pm := DefaultMovementPostingMap()
	_, err := pm.Lines(MovementIssue, 10)
	require.ErrorIs(t, err, shared.ErrMovementUnmapped)
}
