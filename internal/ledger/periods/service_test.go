package periods

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

type fakePeriodRepo struct {
	byID   map[int64]Period
	nextID int64
}

func newFakePeriodRepo() *fakePeriodRepo {
	return &fakePeriodRepo{byID: map[int64]Period{}}
}

func (r *fakePeriodRepo) List(context.Context) ([]Period, error) {
	out := make([]Period, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePeriodRepo) Get(_ context.Context, id int64) (Period, error) {
	p, ok := r.byID[id]
	if !ok {
		return Period{}, shared.ErrPeriodNotFound
	}
	return p, nil
}

func (r *fakePeriodRepo) GetByYearMonth(_ context.Context, year, month int) (Period, error) {
	for _, p := range r.byID {
		if p.Year == year && p.Month == month {
			return p, nil
		}
	}
	return Period{}, shared.ErrPeriodNotFound
}

func (r *fakePeriodRepo) EnsureExists(ctx context.Context, year, month int) (Period, error) {
	if p, err := r.GetByYearMonth(ctx, year, month); err == nil {
		return p, nil
	}
	r.nextID++
	p := Period{ID: r.nextID, Year: year, Month: month, Status: PeriodStatusOpen}
	r.byID[p.ID] = p
	return p, nil
}

func (r *fakePeriodRepo) Close(_ context.Context, id, closedBy int64) (Period, error) {
	p, ok := r.byID[id]
	if !ok {
		return Period{}, shared.ErrPeriodNotFound
	}
	if p.Status == PeriodStatusClosed {
		return Period{}, shared.ErrPeriodAlreadyClosed
	}
	now := time.Now()
	p.Status = PeriodStatusClosed
	p.ClosedBy = &closedBy
	p.ClosedAt = &now
	r.byID[id] = p
	return p, nil
}

func TestCreateIsIdempotent(t *testing.T) {
	svc := NewService(newFakePeriodRepo(), nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, 2025, 6)
	require.NoError(t, err)
	require.Equal(t, PeriodStatusOpen, first.Status)

	second, err := svc.Create(ctx, 2025, 6)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestCreateValidatesYearMonth(t *testing.T) {
	svc := NewService(newFakePeriodRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, 2025, 13)
	require.Error(t, err)
	_, err = svc.Create(ctx, 99, 1)
	require.Error(t, err)
}

func TestCloseIsTerminal(t *testing.T) {
	repo := newFakePeriodRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	period, err := svc.Create(ctx, 2025, 6)
	require.NoError(t, err)

	closed, err := svc.Close(ctx, period.ID, 7)
	require.NoError(t, err)
	require.Equal(t, PeriodStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedBy)
	require.Equal(t, int64(7), *closed.ClosedBy)

	_, err = svc.Close(ctx, period.ID, 7)
	require.ErrorIs(t, err, shared.ErrPeriodAlreadyClosed)
}

func TestCloseRefusedWhileLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() {
		_ = client.Close()
		mr.Close()
	}()
	locker := internalShared.NewLocker(client, time.Minute)
	repo := newFakePeriodRepo()
	svc := NewService(repo, nil, locker)
	ctx := context.Background()

	period, err := svc.Create(ctx, 2025, 6)
	require.NoError(t, err)

	// Another instance is mid-close on the same period.
	key := internalShared.PeriodCloseLockKey(2025, 6)
	require.NoError(t, client.SetNX(ctx, key, "1", time.Minute).Err())

	_, err = svc.Close(ctx, period.ID, 7)
	require.ErrorIs(t, err, internalShared.ErrLockHeld)

	require.NoError(t, client.Del(ctx, key).Err())

	closed, err := svc.Close(ctx, period.ID, 7)
	require.NoError(t, err)
	require.Equal(t, PeriodStatusClosed, closed.Status)

	// The guard releases with the close.
	held, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	require.Zero(t, held)
}

func TestCloseUnknownPeriod(t *testing.T) {
	svc := NewService(newFakePeriodRepo(), nil, nil)
	_, err := svc.Close(context.Background(), 42, 7)
	require.ErrorIs(t, err, shared.ErrPeriodNotFound)
}
