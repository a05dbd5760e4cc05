package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	internalShared "github.com/forge-erp/forge-erp/internal/shared"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service coordinates chart of accounts operations.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateInput groups fields for account creation.
type CreateInput struct {
	Code        string
	Name        string
	Type        AccountType
	Category    string
	Description string
	IsCash      bool
	ActorID     int64
}

func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return errors.New("ledger: account code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("ledger: account name required")
	}
	if !ValidType(in.Type) {
		return fmt.Errorf("ledger: unknown account type %q", in.Type)
	}
	if !ValidCategory(in.Type, in.Category) {
		return shared.ErrInvalidCategory
	}
	return nil
}

// Create inserts a new account after validating code uniqueness and category.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	created, err := s.repo.Insert(ctx, Account{
		Code:        strings.TrimSpace(in.Code),
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Category:    in.Category,
		Description: in.Description,
		IsCash:      in.IsCash,
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, in.ActorID, "account.create", created)
	return created, nil
}

// UpdateInput carries a partial account update. Nil fields stay untouched.
type UpdateInput struct {
	ID          int64
	Code        *string
	Name        *string
	Type        *AccountType
	Category    *string
	Description *string
	IsCash      *bool
	ActorID     int64
}

// Update applies a partial update with the same type/category validation as
// creation. Reclassifying an account that already has posted history is
// permitted; reports pick up the new classification retroactively.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Account, error) {
	if in.ID == 0 {
		return Account{}, errors.New("ledger: account id required")
	}
	current, err := s.repo.Get(ctx, in.ID)
	if err != nil {
		return Account{}, err
	}
	if in.Code != nil {
		current.Code = strings.TrimSpace(*in.Code)
	}
	if in.Name != nil {
		current.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		current.Type = *in.Type
	}
	if in.Category != nil {
		current.Category = *in.Category
	}
	if in.Description != nil {
		current.Description = *in.Description
	}
	if in.IsCash != nil {
		current.IsCash = *in.IsCash
	}
	if current.Code == "" || current.Name == "" {
		return Account{}, errors.New("ledger: account code and name required")
	}
	if !ValidType(current.Type) {
		return Account{}, fmt.Errorf("ledger: unknown account type %q", current.Type)
	}
	if !ValidCategory(current.Type, current.Category) {
		return Account{}, shared.ErrInvalidCategory
	}
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, in.ActorID, "account.update", updated)
	return updated, nil
}

// Delete removes an account unless journal lines or budgets reference it.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	acc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.ReferenceCount(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return shared.ErrAccountInUse
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "account.delete", acc)
	return nil
}

// List returns the chart of accounts ordered by code.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, acc Account) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: fmt.Sprintf("%d", acc.ID),
		Meta: map[string]any{
			"code": acc.Code,
			"type": string(acc.Type),
		},
		At: s.now(),
	})
}
