package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/forge-erp/forge-erp/internal/ledger/accounts"
)

type mockReadRepo struct {
	activity      []AccountActivity
	activityCalls int
	budgetPairs   []BudgetActual
}

func (m *mockReadRepo) AccountActivity(context.Context, *time.Time, *time.Time) ([]AccountActivity, error) {
	m.activityCalls++
	return m.activity, nil
}

func (m *mockReadRepo) SingleAccountActivity(_ context.Context, accountID int64, _, _ *time.Time) (AccountActivity, error) {
	for _, a := range m.activity {
		if a.AccountID == accountID {
			return a, nil
		}
	}
	return AccountActivity{}, context.Canceled
}

func (m *mockReadRepo) BudgetActuals(context.Context, int, int) ([]BudgetActual, error) {
	return m.budgetPairs, nil
}

func newCachedService(t *testing.T, repo ReadRepository) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestTrialBalanceCaches(t *testing.T) {
	repo := &mockReadRepo{activity: sampleActivity()}
	svc, cleanup := newCachedService(t, repo)
	defer cleanup()
	ctx := context.Background()

	first, err := svc.TrialBalance(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, first.Rows, 6)
	require.Equal(t, 1, repo.activityCalls)

	// Second read hits redis, not the repository.
	second, err := svc.TrialBalance(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.activityCalls)
}

func TestCacheBumpInvalidates(t *testing.T) {
	repo := &mockReadRepo{activity: sampleActivity()}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() {
		_ = client.Close()
		mr.Close()
	}()
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	ctx := context.Background()

	_, err := svc.TrialBalance(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, repo.activityCalls)

	require.NoError(t, cache.Bump(ctx))

	_, err = svc.TrialBalance(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, repo.activityCalls)
}

func TestServiceWorksWithoutRedis(t *testing.T) {
	repo := &mockReadRepo{activity: sampleActivity()}
	svc := NewService(repo, nil)

	tb, err := svc.TrialBalance(context.Background(), nil, nil)
	require.NoError(t, err)
	require.InDelta(t, tb.TotalDebitBalances, tb.TotalCreditBalances, 1e-9)
}

func TestIncomeStatementRejectsInvertedRange(t *testing.T) {
	svc := NewService(&mockReadRepo{}, nil)
	start := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.IncomeStatement(context.Background(), start, end)
	require.Error(t, err)
}

func TestBudgetVarianceMonthRange(t *testing.T) {
	svc := NewService(&mockReadRepo{}, nil)
	_, err := svc.BudgetVariance(context.Background(), 2025, 0)
	require.Error(t, err)
	_, err = svc.BudgetVariance(context.Background(), 2025, 13)
	require.Error(t, err)
}

func TestAccountBalanceSignsByNormalSide(t *testing.T) {
	repo := &mockReadRepo{activity: []AccountActivity{
		{AccountID: 3, Code: "2100", Name: "Accounts payable", Type: accounts.AccountTypeLiability, Debit: 100, Credit: 400},
	}}
	svc := NewService(repo, nil)

	result, err := svc.AccountBalance(context.Background(), 3, nil, nil)
	require.NoError(t, err)
	// Credit-normal account with a net credit reports a positive balance.
	require.InDelta(t, 300.0, result.Balance, 1e-9)
}
