package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service coordinates fiscal period lifecycle.
type Service struct {
	repo   Repository
	audit  AuditPort
	locker *internalShared.Locker
	now    func() time.Time
}

func NewService(repo Repository, audit AuditPort, locker *internalShared.Locker) *Service {
	return &Service{repo: repo, audit: audit, locker: locker, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns all known periods ordered by year and month.
func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

// Get fetches one period.
func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.Get(ctx, id)
}

// Create is idempotent: an existing period is returned unchanged, a missing
// one is created OPEN.
func (s *Service) Create(ctx context.Context, year, month int) (Period, error) {
	if err := validateYearMonth(year, month); err != nil {
		return Period{}, err
	}
	return s.repo.EnsureExists(ctx, year, month)
}

// Close transitions OPEN to CLOSED, recording the closer. The transition is
// terminal. A redis lock keeps two operators from racing the same close
// across instances.
func (s *Service) Close(ctx context.Context, id, closedBy int64) (Period, error) {
	if id == 0 {
		return Period{}, errors.New("ledger: period id required")
	}
	if closedBy == 0 {
		return Period{}, errors.New("ledger: closer required")
	}
	target, err := s.repo.Get(ctx, id)
	if err != nil {
		return Period{}, err
	}
	release, err := s.locker.Acquire(ctx, internalShared.PeriodCloseLockKey(target.Year, target.Month))
	if err != nil {
		return Period{}, err
	}
	defer release()
	period, err := s.repo.Close(ctx, id, closedBy)
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  closedBy,
			Action:   "period.close",
			Entity:   "fiscal_period",
			EntityID: fmt.Sprintf("%d", period.ID),
			Meta: map[string]any{
				"year":  period.Year,
				"month": period.Month,
			},
			At: s.now(),
		})
	}
	return period, nil
}

func validateYearMonth(year, month int) error {
	if year < 1900 || year > 9999 {
		return fmt.Errorf("ledger: year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("ledger: month %d out of range", month)
	}
	return nil
}
