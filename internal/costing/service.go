package costing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/forge-erp/forge-erp/internal/ledger/journals"
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

// IdempotencyPort guards movement references against replays across kinds
// that never reach the ledger's source link table.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service is the costing engine. Every movement recomputes the item's
// weighted-average cost where applicable and posts its journal entry inside
// the same database transaction, so stock and ledger can never drift apart
// through a partial failure.
type Service struct {
	repo          Repository
	postingMap    *journals.MovementPostingMap
	idem          IdempotencyPort
	audit         AuditPort
	cache         CacheBumper
	allowNegative bool
	now           func() time.Time
}

func NewService(repo Repository, postingMap *journals.MovementPostingMap, idem IdempotencyPort, audit AuditPort, cache CacheBumper, allowNegative bool) *Service {
	return &Service{
		repo:          repo,
		postingMap:    postingMap,
		idem:          idem,
		audit:         audit,
		cache:         cache,
		allowNegative: allowNegative,
		now:           time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ApplyMovement validates, applies, and posts one stock movement.
//
// Receipts fold the received quantity into the WAC. Issues and scrap value
// the outflow at the current WAC and leave it unchanged. Transfers move
// quantity only. Adjustments follow the direction: inbound (to-location set)
// recomputes the WAC from the supplied unit cost, outbound (from-location
// set) writes down at WAC and posts with flipped sides.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (MovementResult, error) {
	if err := input.Validate(); err != nil {
		return MovementResult{}, err
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = s.now()
	}
	idemKey := fmt.Sprintf("movement:%s", input.Reference)
	if s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idemKey, "costing"); err != nil {
			if errors.Is(err, internalShared.ErrIdempotencyConflict) {
				return MovementResult{}, ErrDuplicateMovement
			}
			return MovementResult{}, err
		}
	}
	var result MovementResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		applied, err := s.applyInTx(ctx, tx, input)
		if err != nil {
			return err
		}
		result = applied
		return nil
	})
	if err != nil {
		if s.idem != nil {
			_ = s.idem.Delete(ctx, idemKey)
		}
		return MovementResult{}, err
	}
	s.afterMovement(ctx, input, result)
	return result, nil
}

func (s *Service) applyInTx(ctx context.Context, tx TxRepository, input MovementInput) (MovementResult, error) {
	cost, err := tx.LockItemCost(ctx, input.VariantID)
	if err != nil {
		return MovementResult{}, err
	}
	onHand, err := tx.OnHand(ctx, input.VariantID)
	if err != nil {
		return MovementResult{}, err
	}

	var (
		unitCost = input.UnitCost
		amount   float64
	)
	switch input.Kind {
	case journals.MovementPurchase:
		if input.ToLocationID == 0 {
			return MovementResult{}, ErrLocationRequired
		}
		cost.WAC = NextWAC(onHand, cost.WAC, input.Quantity, input.UnitCost)
		cost.PurchasePrice = input.UnitCost
		if _, err := tx.AdjustStock(ctx, input.VariantID, input.ToLocationID, input.Quantity); err != nil {
			return MovementResult{}, err
		}
		if err := tx.UpsertItemCost(ctx, cost); err != nil {
			return MovementResult{}, err
		}
		amount = input.Quantity * input.UnitCost

	case journals.MovementIssue, journals.MovementScrap:
		if input.FromLocationID == 0 {
			return MovementResult{}, ErrLocationRequired
		}
		unitCost = cost.EffectiveUnitCost()
		remaining, err := tx.AdjustStock(ctx, input.VariantID, input.FromLocationID, -input.Quantity)
		if err != nil {
			return MovementResult{}, err
		}
		if remaining < 0 && !s.allowNegative {
			return MovementResult{}, ErrNegativeStock
		}
		amount = input.Quantity * unitCost

	case journals.MovementTransfer:
		if input.FromLocationID == 0 || input.ToLocationID == 0 {
			return MovementResult{}, ErrLocationRequired
		}
		remaining, err := tx.AdjustStock(ctx, input.VariantID, input.FromLocationID, -input.Quantity)
		if err != nil {
			return MovementResult{}, err
		}
		if remaining < 0 && !s.allowNegative {
			return MovementResult{}, ErrNegativeStock
		}
		if _, err := tx.AdjustStock(ctx, input.VariantID, input.ToLocationID, input.Quantity); err != nil {
			return MovementResult{}, err
		}
		unitCost = cost.EffectiveUnitCost()

	case journals.MovementAdjustment:
		switch {
		case input.ToLocationID != 0:
			cost.WAC = NextWAC(onHand, cost.WAC, input.Quantity, input.UnitCost)
			if _, err := tx.AdjustStock(ctx, input.VariantID, input.ToLocationID, input.Quantity); err != nil {
				return MovementResult{}, err
			}
			if err := tx.UpsertItemCost(ctx, cost); err != nil {
				return MovementResult{}, err
			}
			amount = input.Quantity * input.UnitCost
		case input.FromLocationID != 0:
			unitCost = cost.EffectiveUnitCost()
			remaining, err := tx.AdjustStock(ctx, input.VariantID, input.FromLocationID, -input.Quantity)
			if err != nil {
				return MovementResult{}, err
			}
			if remaining < 0 && !s.allowNegative {
				return MovementResult{}, ErrNegativeStock
			}
			amount = -input.Quantity * unitCost
		default:
			return MovementResult{}, ErrLocationRequired
		}
	}

	movementID, err := tx.InsertMovement(ctx, Movement{
		Kind:           input.Kind,
		VariantID:      input.VariantID,
		FromLocationID: input.FromLocationID,
		ToLocationID:   input.ToLocationID,
		Quantity:       input.Quantity,
		UnitCost:       round2(unitCost),
		Reference:      input.Reference,
		OccurredAt:     input.OccurredAt,
		CreatedBy:      input.ActorID,
	})
	if err != nil {
		return MovementResult{}, err
	}

	result := MovementResult{
		MovementID: movementID,
		Kind:       input.Kind,
		VariantID:  input.VariantID,
		Quantity:   input.Quantity,
		UnitCost:   round2(unitCost),
		WAC:        cost.WAC,
	}
	result.OnHand, err = tx.OnHand(ctx, input.VariantID)
	if err != nil {
		return MovementResult{}, err
	}

	lines, err := s.postingMap.Lines(input.Kind, round2(amount))
	if err != nil {
		return MovementResult{}, err
	}
	if len(lines) == 0 {
		return result, nil
	}
	entry, err := journals.PostInTx(ctx, tx.Ledger(), journals.PostingInput{
		Date:          input.OccurredAt,
		Memo:          fmt.Sprintf("%s %s", input.Kind, input.Reference),
		ReferenceType: journals.ReferenceInventoryMovement,
		ReferenceID:   MovementReferenceID(input.Reference),
		CreatedBy:     input.ActorID,
		Lines:         lines,
	})
	if err != nil {
		return MovementResult{}, err
	}
	result.Entry = entry
	result.Posted = true
	return result, nil
}

// MovementReferenceID derives the deterministic journal reference for a
// movement, so retries of the same reference hit the source link constraint.
func MovementReferenceID(reference string) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte("movement:"+reference))
}

// Valuation computes current stock value per item.
func (s *Service) Valuation(ctx context.Context) (Valuation, error) {
	items, err := s.repo.ItemValuations(ctx)
	if err != nil {
		return Valuation{}, err
	}
	out := Valuation{AsOf: s.now()}
	for _, item := range items {
		item.Value = round2(item.Quantity * item.UnitCost)
		out.Items = append(out.Items, item)
		out.TotalValue += item.Value
	}
	out.TotalValue = round2(out.TotalValue)
	return out, nil
}

// InventoryBalancePort reads the ledger's inventory account balance.
type InventoryBalancePort interface {
	InventoryBalance(ctx context.Context) (float64, error)
}

// Reconcile compares the rolling valuation against the ledger's inventory
// balance. Drift inside the posting tolerance counts as in balance.
func (s *Service) Reconcile(ctx context.Context, ledger InventoryBalancePort) (Reconciliation, error) {
	valuation, err := s.Valuation(ctx)
	if err != nil {
		return Reconciliation{}, err
	}
	balance, err := ledger.InventoryBalance(ctx)
	if err != nil {
		return Reconciliation{}, err
	}
	drift := round2(valuation.TotalValue - balance)
	return Reconciliation{
		ValuationTotal: valuation.TotalValue,
		LedgerBalance:  round2(balance),
		Drift:          drift,
		InBalance:      math.Abs(drift) <= 0.01,
		CheckedAt:      s.now(),
	}, nil
}

// PeriodCosts builds the cost-of-goods-manufactured summary for a range.
func (s *Service) PeriodCosts(ctx context.Context, start, end time.Time) (PeriodCosts, error) {
	if start.IsZero() || end.IsZero() {
		return PeriodCosts{}, errors.New("costing: period range required")
	}
	if end.Before(start) {
		return PeriodCosts{}, errors.New("costing: period end before start")
	}
	orders, err := s.repo.CompletedOrderCosts(ctx, start, end)
	if err != nil {
		return PeriodCosts{}, err
	}
	out := PeriodCosts{Start: start, End: end, Orders: orders}
	for i := range out.Orders {
		out.Orders[i].MaterialCost = round2(out.Orders[i].MaterialCost)
		out.Orders[i].LaborCost = round2(out.Orders[i].LaborCost)
		out.Orders[i].MachineCost = round2(out.Orders[i].MachineCost)
		out.Orders[i].TotalCost = round2(out.Orders[i].TotalCost)
		out.TotalMaterial += out.Orders[i].MaterialCost
		out.TotalLabor += out.Orders[i].LaborCost
		out.TotalMachine += out.Orders[i].MachineCost
	}
	out.TotalMaterial = round2(out.TotalMaterial)
	out.TotalLabor = round2(out.TotalLabor)
	out.TotalMachine = round2(out.TotalMachine)
	out.Total = round2(out.TotalMaterial + out.TotalLabor + out.TotalMachine)
	return out, nil
}

// Movements lists recent movements, optionally filtered by item.
func (s *Service) Movements(ctx context.Context, variantID int64, limit int) ([]Movement, error) {
	return s.repo.ListMovements(ctx, variantID, limit)
}

func (s *Service) afterMovement(ctx context.Context, input MovementInput, result MovementResult) {
	if s.cache != nil && result.Posted {
		_ = s.cache.Bump(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory.movement",
			Entity:   "stock_movement",
			EntityID: fmt.Sprintf("%d", result.MovementID),
			Meta: map[string]any{
				"kind":      string(input.Kind),
				"variant":   input.VariantID,
				"quantity":  input.Quantity,
				"unit_cost": result.UnitCost,
				"wac":       result.WAC,
				"reference": input.Reference,
			},
			At: s.now(),
		})
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
