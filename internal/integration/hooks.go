package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/forge-erp/forge-erp/internal/ledger/journals"
	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

// LedgerPort is the journal engine surface the hooks need.
type LedgerPort interface {
	Post(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error)
	DeleteBySource(ctx context.Context, input journals.DeleteBySourceInput) (journals.JournalEntry, error)
}

// Service turns upstream document events into journal entries. Each document
// posts under its own deterministic reference, so replays collapse on the
// ledger's source link and never double-post.
type Service struct {
	logger   *slog.Logger
	ledger   LedgerPort
	accounts *AccountMap
	assets   AssetRepository
}

func NewService(logger *slog.Logger, ledger LedgerPort, accounts *AccountMap, assets AssetRepository) *Service {
	return &Service{logger: logger, ledger: ledger, accounts: accounts, assets: assets}
}

// InvoiceEvent describes a posted sales or purchase invoice.
type InvoiceEvent struct {
	InvoiceID uuid.UUID
	Number    string
	Date      time.Time
	Subtotal  float64
	Tax       float64
	ActorID   int64
}

func (e InvoiceEvent) validate() error {
	if e.InvoiceID == uuid.Nil {
		return errors.New("integration: invoice id required")
	}
	if e.Date.IsZero() {
		return errors.New("integration: invoice date required")
	}
	if e.Subtotal <= 0 {
		return errors.New("integration: invoice subtotal must be positive")
	}
	if e.Tax < 0 {
		return errors.New("integration: invoice tax must be >= 0")
	}
	return nil
}

// PaymentEvent describes a settled customer or supplier payment.
type PaymentEvent struct {
	PaymentID uuid.UUID
	Number    string
	Date      time.Time
	Amount    float64
	ActorID   int64
}

func (e PaymentEvent) validate() error {
	if e.PaymentID == uuid.Nil {
		return errors.New("integration: payment id required")
	}
	if e.Date.IsZero() {
		return errors.New("integration: payment date required")
	}
	if e.Amount <= 0 {
		return errors.New("integration: payment amount must be positive")
	}
	return nil
}

// SalesInvoicePosted books receivable against revenue and tax payable.
func (s *Service) SalesInvoicePosted(ctx context.Context, e InvoiceEvent) (journals.JournalEntry, error) {
	if err := e.validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	return s.post(ctx, journals.PostingInput{
		Date:          e.Date,
		Memo:          fmt.Sprintf("Sales invoice %s", e.Number),
		ReferenceType: journals.ReferenceSalesInvoice,
		ReferenceID:   e.InvoiceID,
		CreatedBy:     e.ActorID,
		Lines:         s.accounts.salesInvoiceLines(e.Subtotal, e.Tax),
	})
}

// SalesInvoiceDeleted removes or reverses the invoice's entry.
func (s *Service) SalesInvoiceDeleted(ctx context.Context, invoiceID uuid.UUID, actorID int64) (journals.JournalEntry, error) {
	return s.ledger.DeleteBySource(ctx, journals.DeleteBySourceInput{
		ReferenceType: journals.ReferenceSalesInvoice,
		ReferenceID:   invoiceID,
		ActorID:       actorID,
	})
}

// PurchaseInvoicePosted books the goods receipt clearing against payable.
func (s *Service) PurchaseInvoicePosted(ctx context.Context, e InvoiceEvent) (journals.JournalEntry, error) {
	if err := e.validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	return s.post(ctx, journals.PostingInput{
		Date:          e.Date,
		Memo:          fmt.Sprintf("Purchase invoice %s", e.Number),
		ReferenceType: journals.ReferencePurchaseInvoice,
		ReferenceID:   e.InvoiceID,
		CreatedBy:     e.ActorID,
		Lines:         s.accounts.purchaseInvoiceLines(e.Subtotal, e.Tax),
	})
}

// PurchaseInvoiceDeleted removes or reverses the invoice's entry.
func (s *Service) PurchaseInvoiceDeleted(ctx context.Context, invoiceID uuid.UUID, actorID int64) (journals.JournalEntry, error) {
	return s.ledger.DeleteBySource(ctx, journals.DeleteBySourceInput{
		ReferenceType: journals.ReferencePurchaseInvoice,
		ReferenceID:   invoiceID,
		ActorID:       actorID,
	})
}

// SalesPaymentReceived books cash against receivable.
func (s *Service) SalesPaymentReceived(ctx context.Context, e PaymentEvent) (journals.JournalEntry, error) {
	if err := e.validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	return s.post(ctx, journals.PostingInput{
		Date:          e.Date,
		Memo:          fmt.Sprintf("Customer payment %s", e.Number),
		ReferenceType: journals.ReferenceSalesPayment,
		ReferenceID:   e.PaymentID,
		CreatedBy:     e.ActorID,
		Lines:         s.accounts.salesPaymentLines(e.Amount),
	})
}

// PurchasePaymentMade books payable against cash.
func (s *Service) PurchasePaymentMade(ctx context.Context, e PaymentEvent) (journals.JournalEntry, error) {
	if err := e.validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	return s.post(ctx, journals.PostingInput{
		Date:          e.Date,
		Memo:          fmt.Sprintf("Supplier payment %s", e.Number),
		ReferenceType: journals.ReferencePurchasePayment,
		ReferenceID:   e.PaymentID,
		CreatedBy:     e.ActorID,
		Lines:         s.accounts.purchasePaymentLines(e.Amount),
	})
}

// DepreciationRun posts one entry per depreciable asset for the given month.
// Reference ids derive from the asset and month, so re-running a month skips
// assets that already posted and the run stays idempotent.
func (s *Service) DepreciationRun(ctx context.Context, year int, month time.Month, actorID int64) (int, error) {
	asOf := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	assets, err := s.assets.ListDepreciable(ctx, asOf)
	if err != nil {
		return 0, err
	}
	var posted int
	for _, asset := range assets {
		refID := uuid.NewSHA1(asset.ID, []byte(fmt.Sprintf("depreciation:%d-%02d", year, month)))
		_, err := s.ledger.Post(ctx, journals.PostingInput{
			Date:          asOf,
			Memo:          fmt.Sprintf("Depreciation %d-%02d %s", year, month, asset.Name),
			ReferenceType: journals.ReferenceDepreciation,
			ReferenceID:   refID,
			CreatedBy:     actorID,
			Lines:         s.accounts.depreciationLines(asset.MonthlyAmount),
		})
		if err != nil {
			if errors.Is(err, shared.ErrSourceAlreadyLinked) {
				continue
			}
			return posted, fmt.Errorf("integration: depreciate asset %s: %w", asset.ID, err)
		}
		posted++
	}
	if s.logger != nil {
		s.logger.Info("depreciation run complete",
			slog.Int("year", year),
			slog.Int("month", int(month)),
			slog.Int("assets", len(assets)),
			slog.Int("posted", posted))
	}
	return posted, nil
}

func (s *Service) post(ctx context.Context, input journals.PostingInput) (journals.JournalEntry, error) {
	entry, err := s.ledger.Post(ctx, input)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	return entry, nil
}
