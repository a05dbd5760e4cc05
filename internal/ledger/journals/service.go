package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forge-erp/forge-erp/internal/ledger/periods"
	"github.com/forge-erp/forge-erp/internal/ledger/shared"
	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// CacheBumper invalidates report caches after a ledger mutation.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service is the journal engine: it validates balanced entries and persists
// them atomically behind the fiscal period gate.
type Service struct {
	repo  Repository
	audit AuditPort
	cache CacheBumper
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort, cache CacheBumper) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns recent journal entries.
func (s *Service) List(ctx context.Context, limit int) ([]JournalEntry, error) {
	return s.repo.List(ctx, limit)
}

// Get fetches one entry with its lines.
func (s *Service) Get(ctx context.Context, entryID int64) (JournalEntry, error) {
	return s.repo.GetWithLines(ctx, entryID)
}

// Post validates and atomically persists a journal entry. Manual entries
// without a reference id get a generated one so every entry is addressable
// through the source link table.
func (s *Service) Post(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	if input.ReferenceID == uuid.Nil {
		if input.ReferenceType != ReferenceManual && input.ReferenceType != ReferenceOpeningBalance {
			return JournalEntry{}, errors.New("ledger: reference id required for non-manual entries")
		}
		input.ReferenceID = uuid.New()
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := PostInTx(ctx, tx, input)
		if err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.afterMutation(ctx, input.CreatedBy, "journal.post", entry)
	return entry, nil
}

// PostInTx runs the posting sequence against an already open transaction.
// The costing engine uses it to commit an inventory mutation and its ledger
// posting as one atomic unit.
func PostInTx(ctx context.Context, tx TxRepository, input PostingInput) (JournalEntry, error) {
	period, err := tx.EnsurePeriodForPosting(ctx, input.Date)
	if err != nil {
		return JournalEntry{}, err
	}
	if period.Status == periods.PeriodStatusClosed {
		return JournalEntry{}, shared.ErrPeriodClosed
	}
	number, err := tx.NextEntryNumber(ctx, input.Date.Year())
	if err != nil {
		return JournalEntry{}, err
	}
	inserted, err := tx.InsertJournalEntry(ctx, input, number)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := tx.InsertJournalLines(ctx, inserted.ID, input.Lines); err != nil {
		return JournalEntry{}, err
	}
	if err := tx.LinkSource(ctx, input.ReferenceType, input.ReferenceID, inserted.ID); err != nil {
		if errors.Is(err, shared.ErrSourceConflict) {
			return JournalEntry{}, shared.ErrSourceAlreadyLinked
		}
		return JournalEntry{}, err
	}
	inserted.Lines = toJournalLines(inserted.ID, input.Lines)
	return inserted, nil
}

// DeleteBySource removes or reverses the entry produced by a business object
// that is being deleted. Entries in open periods are deleted outright; once
// the period has closed the history stays and a mirrored reversal is posted
// into the first open period at or after today.
func (s *Service) DeleteBySource(ctx context.Context, input DeleteBySourceInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var result JournalEntry
	var action string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, lines, err := tx.GetBySourceForUpdate(ctx, input.ReferenceType, input.ReferenceID)
		if err != nil {
			return err
		}
		period, err := tx.EnsurePeriodForPosting(ctx, entry.Date)
		if err != nil {
			return err
		}
		if period.Status == periods.PeriodStatusOpen {
			if err := tx.DeleteEntry(ctx, entry.ID); err != nil {
				return err
			}
			entry.Lines = lines
			result = entry
			action = "journal.delete"
			return nil
		}
		target, err := tx.NextOpenPeriodAfter(ctx, s.now())
		if err != nil {
			return err
		}
		reversalDate := s.now()
		if target.Year != reversalDate.Year() || target.Month != int(reversalDate.Month()) {
			reversalDate = time.Date(target.Year, time.Month(target.Month), 1, 0, 0, 0, 0, time.UTC)
		}
		reversal := PostingInput{
			Date:          reversalDate,
			Memo:          fmt.Sprintf("Reversal of %s", entry.EntryNumber),
			ReferenceType: input.ReferenceType,
			ReferenceID:   uuid.NewSHA1(input.ReferenceID, []byte("reversal")),
			CreatedBy:     input.ActorID,
			Lines:         reverseLines(lines),
		}
		posted, err := PostInTx(ctx, tx, reversal)
		if err != nil {
			return err
		}
		result = posted
		action = "journal.reverse"
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.afterMutation(ctx, input.ActorID, action, result)
	return result, nil
}

func (s *Service) afterMutation(ctx context.Context, actorID int64, action string, entry JournalEntry) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  actorID,
			Action:   action,
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"entry_number":   entry.EntryNumber,
				"reference_type": string(entry.ReferenceType),
				"reference_id":   entry.ReferenceID.String(),
			},
			At: s.now(),
		})
	}
}

func reverseLines(lines []JournalLine) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, PostingLineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
		})
	}
	return out
}

func toJournalLines(entryID int64, lines []PostingLineInput) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, JournalLine{
			JournalID: entryID,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	return out
}
