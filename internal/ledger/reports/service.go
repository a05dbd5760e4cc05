package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

// Service derives reports purely from posted journal lines and budget rows.
// Nothing here mutates ledger state. Results are cached in redis under a
// versioned key and concurrent builds of the same report collapse through
// singleflight.
type Service struct {
	repo  ReadRepository
	cache *Cache
	group singleflight.Group
}

func NewService(repo ReadRepository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// AccountBalanceResult is the outward shape for one account's balance.
type AccountBalanceResult struct {
	AccountID int64   `json:"account_id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`
	Balance   float64 `json:"balance"`
}

// TrialBalance lists per-account debit/credit totals and normal-side
// balances for the optional range.
func (s *Service) TrialBalance(ctx context.Context, start, end *time.Time) (TrialBalance, error) {
	var result TrialBalance
	err := s.cached(ctx, keyRange("tb", start, end), &result, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.AccountActivity(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(activity), nil
	})
	return result, err
}

// IncomeStatement sums revenue and expense postings in range.
func (s *Service) IncomeStatement(ctx context.Context, start, end time.Time) (IncomeStatement, error) {
	if end.Before(start) {
		return IncomeStatement{}, errors.New("ledger: report range end before start")
	}
	var result IncomeStatement
	err := s.cached(ctx, keyRange("pl", &start, &end), &result, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.AccountActivity(ctx, &start, &end)
		if err != nil {
			return nil, err
		}
		return BuildIncomeStatement(activity), nil
	})
	return result, err
}

// BalanceSheet nets cumulative balances from the beginning of ledger
// history through asOf.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	if asOf.IsZero() {
		return BalanceSheet{}, errors.New("ledger: as-of date required")
	}
	var result BalanceSheet
	err := s.cached(ctx, keyRange("bs", nil, &asOf), &result, func(ctx context.Context) (interface{}, error) {
		activity, err := s.repo.AccountActivity(ctx, nil, &asOf)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(activity), nil
	})
	return result, err
}

// BudgetVariance joins budget targets against the month's actuals.
func (s *Service) BudgetVariance(ctx context.Context, year, month int) (BudgetVariance, error) {
	if month < 1 || month > 12 {
		return BudgetVariance{}, fmt.Errorf("ledger: month %d out of range", month)
	}
	var result BudgetVariance
	key := fmt.Sprintf("bv:%d:%02d", year, month)
	err := s.cached(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
		pairs, err := s.repo.BudgetActuals(ctx, year, month)
		if err != nil {
			return nil, err
		}
		return BuildBudgetVariance(year, month, pairs), nil
	})
	return result, err
}

// AccountBalance returns the signed balance for one account over an
// optional range.
func (s *Service) AccountBalance(ctx context.Context, accountID int64, start, end *time.Time) (AccountBalanceResult, error) {
	activity, err := s.repo.SingleAccountActivity(ctx, accountID, start, end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountBalanceResult{}, shared.ErrAccountNotFound
		}
		return AccountBalanceResult{}, err
	}
	return AccountBalanceResult{
		AccountID: activity.AccountID,
		Code:      activity.Code,
		Name:      activity.Name,
		Type:      string(activity.Type),
		Debit:     round2(activity.Debit),
		Credit:    round2(activity.Credit),
		Balance:   round2(activity.Balance()),
	}, nil
}

func (s *Service) cached(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	fullKey, err := s.cache.BuildKey(ctx, "reports", key)
	if err != nil {
		return err
	}
	result := s.group.DoChan(fullKey, func() (interface{}, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, fullKey, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.(json.RawMessage), dest)
	}
}

func keyRange(prefix string, start, end *time.Time) string {
	const layout = "2006-01-02"
	from, to := "min", "max"
	if start != nil {
		from = start.Format(layout)
	}
	if end != nil {
		to = end.Format(layout)
	}
	return fmt.Sprintf("%s:%s:%s", prefix, from, to)
}
