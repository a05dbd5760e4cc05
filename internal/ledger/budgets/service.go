package budgets

import (
	"context"
	"errors"
	"fmt"
)

// Service coordinates budget maintenance.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetInput carries an upsert request for one account and month.
type SetInput struct {
	AccountID int64
	Year      int
	Month     int
	Amount    float64
}

func (in SetInput) Validate() error {
	if in.AccountID == 0 {
		return errors.New("ledger: budget account required")
	}
	if in.Year < 1900 || in.Year > 9999 {
		return fmt.Errorf("ledger: year %d out of range", in.Year)
	}
	if in.Month < 1 || in.Month > 12 {
		return fmt.Errorf("ledger: month %d out of range", in.Month)
	}
	if in.Amount < 0 {
		return errors.New("ledger: budget amount must be non-negative")
	}
	return nil
}

// Set upserts the monthly target. Budgets stay editable after period close;
// variance reports always compare against the latest target.
func (s *Service) Set(ctx context.Context, in SetInput) (Budget, error) {
	if err := in.Validate(); err != nil {
		return Budget{}, err
	}
	return s.repo.Upsert(ctx, Budget{
		AccountID: in.AccountID,
		Year:      in.Year,
		Month:     in.Month,
		Amount:    in.Amount,
	})
}

// ListForPeriod returns all targets for a month.
func (s *Service) ListForPeriod(ctx context.Context, year, month int) ([]Budget, error) {
	return s.repo.ListForPeriod(ctx, year, month)
}

// Delete removes one target.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
