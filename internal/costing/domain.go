package costing

import (
	"errors"
	"time"

	"github.com/forge-erp/forge-erp/internal/ledger/journals"
)

// ItemCost carries the rolling weighted-average cost for one product
// variant. The cost basis is item-level: locations share one WAC.
type ItemCost struct {
	VariantID     int64
	WAC           float64
	PurchasePrice float64
	UpdatedAt     time.Time
}

// EffectiveUnitCost is the valuation cost: WAC when established, otherwise
// the latest purchase price.
func (c ItemCost) EffectiveUnitCost() float64 {
	if c.WAC > 0 {
		return c.WAC
	}
	return c.PurchasePrice
}

// Movement models one stock movement header persisted with its valuation.
type Movement struct {
	ID             int64
	Kind           journals.MovementKind
	VariantID      int64
	FromLocationID int64
	ToLocationID   int64
	Quantity       float64
	UnitCost       float64
	Reference      string
	OccurredAt     time.Time
	CreatedBy      int64
	CreatedAt      time.Time
}

// MovementInput describes a stock movement request from inventory,
// production, or purchasing workflows.
type MovementInput struct {
	Kind           journals.MovementKind
	VariantID      int64
	FromLocationID int64
	ToLocationID   int64
	Quantity       float64
	UnitCost       float64
	Reference      string
	OccurredAt     time.Time
	ActorID        int64
}

// MovementResult reports the applied movement, the recomputed cost state,
// and the ledger entry committed with it.
type MovementResult struct {
	MovementID int64
	Kind       journals.MovementKind
	VariantID  int64
	Quantity   float64
	UnitCost   float64
	WAC        float64
	OnHand     float64
	Entry      journals.JournalEntry
	Posted     bool
}

// ItemValuation is one line of the independent inventory valuation.
type ItemValuation struct {
	VariantID int64   `json:"variant_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
	Value     float64 `json:"value"`
}

// Valuation aggregates stock value across all items at current time. It is
// a cross-check against the ledger's Inventory account, not authoritative.
type Valuation struct {
	Items      []ItemValuation `json:"items"`
	TotalValue float64         `json:"total_value"`
	AsOf       time.Time       `json:"as_of"`
}

// Reconciliation compares the rolling valuation with the ledger balance.
type Reconciliation struct {
	ValuationTotal float64   `json:"valuation_total"`
	LedgerBalance  float64   `json:"ledger_balance"`
	Drift          float64   `json:"drift"`
	InBalance      bool      `json:"in_balance"`
	CheckedAt      time.Time `json:"checked_at"`
}

// ProductionOrderCost aggregates material, labor, and machine cost for one
// completed production order.
type ProductionOrderCost struct {
	OrderID      int64     `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	CompletedAt  time.Time `json:"completed_at"`
	MaterialCost float64   `json:"material_cost"`
	LaborCost    float64   `json:"labor_cost"`
	MachineCost  float64   `json:"machine_cost"`
	TotalCost    float64   `json:"total_cost"`
}

// PeriodCosts is the cost-of-goods-manufactured report for a range.
type PeriodCosts struct {
	Start         time.Time             `json:"start"`
	End           time.Time             `json:"end"`
	Orders        []ProductionOrderCost `json:"orders"`
	TotalMaterial float64               `json:"total_material"`
	TotalLabor    float64               `json:"total_labor"`
	TotalMachine  float64               `json:"total_machine"`
	Total         float64               `json:"total"`
}

var (
	// ErrNegativeStock triggered when a movement would drive quantity negative.
	ErrNegativeStock = errors.New("costing: negative stock not allowed")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("costing: quantity must be positive")
	// ErrInvalidUnitCost indicates a negative cost value.
	ErrInvalidUnitCost = errors.New("costing: unit cost must be >= 0")
	// ErrItemNotFound indicates an unknown product variant.
	ErrItemNotFound = errors.New("costing: item not found")
	// ErrLocationRequired indicates a movement missing its location.
	ErrLocationRequired = errors.New("costing: location required for movement")
	// ErrDuplicateMovement indicates the movement reference was already applied.
	ErrDuplicateMovement = errors.New("costing: movement already applied")
	// ErrInvalidMovementKind indicates an unknown movement kind.
	ErrInvalidMovementKind = errors.New("costing: unknown movement kind")
)

// Validate checks the structural invariants of a movement request. Kind
// specific location rules live in the service since they depend on the
// direction of the adjustment.
func (in MovementInput) Validate() error {
	switch in.Kind {
	case journals.MovementPurchase, journals.MovementIssue, journals.MovementTransfer,
		journals.MovementAdjustment, journals.MovementScrap:
	default:
		return ErrInvalidMovementKind
	}
	if in.VariantID == 0 {
		return ErrItemNotFound
	}
	if in.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if in.UnitCost < 0 {
		return ErrInvalidUnitCost
	}
	if in.Reference == "" {
		return errors.New("costing: movement reference required")
	}
	return nil
}

// NextWAC recomputes the weighted-average cost after an inbound receipt.
// The degenerate zero-total case leaves the old WAC untouched.
func NextWAC(currentQty, currentWAC, receivedQty, unitCost float64) float64 {
	total := currentQty + receivedQty
	if total == 0 {
		return currentWAC
	}
	return (currentQty*currentWAC + receivedQty*unitCost) / total
}
