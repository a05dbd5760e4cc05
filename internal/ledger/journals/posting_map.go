package journals

import (
	"context"
	"fmt"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

// MovementKind enumerates stock movements the ledger knows how to post.
type MovementKind string

const (
	MovementPurchase   MovementKind = "PURCHASE"
	MovementIssue      MovementKind = "ISSUE"
	MovementTransfer   MovementKind = "TRANSFER"
	MovementAdjustment MovementKind = "ADJUSTMENT"
	MovementScrap      MovementKind = "SCRAP"
)

// PostingRule names the debit and credit account codes for one movement kind.
// NoPosting marks kinds that never reach the ledger (location transfers move
// quantity only, the cost basis is item-level).
type PostingRule struct {
	DebitCode  string
	CreditCode string
	NoPosting  bool
}

type resolvedRule struct {
	debitID  int64
	creditID int64
	none     bool
}

// MovementPostingMap is the closed movement-to-account lookup. It must be
// resolved against the chart of accounts at startup so an unmapped movement
// fails fast instead of posting to a wrong or missing account.
type MovementPostingMap struct {
	rules    map[MovementKind]PostingRule
	resolved map[MovementKind]resolvedRule
}

// DefaultMovementPostingMap wires the standard manufacturing flow.
func DefaultMovementPostingMap() *MovementPostingMap {
	return NewMovementPostingMap(map[MovementKind]PostingRule{
		MovementPurchase:   {DebitCode: "1400", CreditCode: "2150"}, // Inventory / GR-IR clearing
		MovementIssue:      {DebitCode: "1450", CreditCode: "1400"}, // Work in process / Inventory
		MovementTransfer:   {NoPosting: true},
		MovementAdjustment: {DebitCode: "1400", CreditCode: "5920"}, // Inventory / Inventory adjustment
		MovementScrap:      {DebitCode: "5930", CreditCode: "1400"}, // Scrap expense / Inventory
	})
}

func NewMovementPostingMap(rules map[MovementKind]PostingRule) *MovementPostingMap {
	return &MovementPostingMap{rules: rules}
}

// AccountCodeResolver looks an account id up by code.
type AccountCodeResolver interface {
	AccountIDByCode(ctx context.Context, code string) (int64, error)
}

// Resolve binds every rule to concrete account ids. Every known movement
// kind must have a rule and every rule must hit an existing account.
func (m *MovementPostingMap) Resolve(ctx context.Context, resolver AccountCodeResolver) error {
	kinds := []MovementKind{MovementPurchase, MovementIssue, MovementTransfer, MovementAdjustment, MovementScrap}
	resolved := make(map[MovementKind]resolvedRule, len(kinds))
	for _, kind := range kinds {
		rule, ok := m.rules[kind]
		if !ok {
			return fmt.Errorf("%w: %s", shared.ErrMovementUnmapped, kind)
		}
		if rule.NoPosting {
			resolved[kind] = resolvedRule{none: true}
			continue
		}
		debitID, err := resolver.AccountIDByCode(ctx, rule.DebitCode)
		if err != nil {
			return fmt.Errorf("ledger: resolve debit account %s for %s: %w", rule.DebitCode, kind, err)
		}
		creditID, err := resolver.AccountIDByCode(ctx, rule.CreditCode)
		if err != nil {
			return fmt.Errorf("ledger: resolve credit account %s for %s: %w", rule.CreditCode, kind, err)
		}
		resolved[kind] = resolvedRule{debitID: debitID, creditID: creditID}
	}
	m.resolved = resolved
	return nil
}

// Lines builds the balanced line pair for a movement valued at amount.
// Negative amounts flip the sides, so adjustment write-downs credit
// inventory instead of debiting it.
func (m *MovementPostingMap) Lines(kind MovementKind, amount float64) ([]PostingLineInput, error) {
	if m.resolved == nil {
		return nil, fmt.Errorf("%w: map not resolved", shared.ErrMovementUnmapped)
	}
	rule, ok := m.resolved[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovementUnmapped, kind)
	}
	if rule.none || amount == 0 {
		return nil, nil
	}
	debitID, creditID := rule.debitID, rule.creditID
	if amount < 0 {
		debitID, creditID = creditID, debitID
		amount = -amount
	}
	return []PostingLineInput{
		{AccountID: debitID, Debit: amount},
		{AccountID: creditID, Credit: amount},
	}, nil
}
