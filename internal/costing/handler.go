package costing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/forge-erp/forge-erp/internal/ledger/journals"
	ledgerShared "github.com/forge-erp/forge-erp/internal/ledger/shared"
	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// Handler serves inventory costing endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	ledger   InventoryBalancePort
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, ledger InventoryBalancePort) *Handler {
	return &Handler{logger: logger, service: service, ledger: ledger, validate: validator.New()}
}

// MountRoutes registers costing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/movements", h.applyMovement)
	r.Get("/movements", h.listMovements)
	r.Get("/valuation", h.valuation)
	r.Get("/reconciliation", h.reconciliation)
	r.Get("/period-costs", h.periodCosts)
}

type movementRequest struct {
	Kind           string  `json:"kind" validate:"required"`
	VariantID      int64   `json:"variant_id" validate:"required"`
	FromLocationID int64   `json:"from_location_id"`
	ToLocationID   int64   `json:"to_location_id"`
	Quantity       float64 `json:"quantity" validate:"gt=0"`
	UnitCost       float64 `json:"unit_cost" validate:"gte=0"`
	Reference      string  `json:"reference" validate:"required"`
	OccurredAt     string  `json:"occurred_at"`
	ActorID        int64   `json:"actor_id"`
}

type movementResponse struct {
	MovementID  int64   `json:"movement_id"`
	Kind        string  `json:"kind"`
	VariantID   int64   `json:"variant_id"`
	Quantity    float64 `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	WAC         float64 `json:"wac"`
	OnHand      float64 `json:"on_hand"`
	Posted      bool    `json:"posted"`
	EntryNumber string  `json:"entry_number,omitempty"`
}

func (h *Handler) applyMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := internalShared.DecodeJSON(w, r, &req); err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		internalShared.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	input := MovementInput{
		Kind:           journals.MovementKind(req.Kind),
		VariantID:      req.VariantID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Quantity:       req.Quantity,
		UnitCost:       req.UnitCost,
		Reference:      req.Reference,
		ActorID:        req.ActorID,
	}
	if req.OccurredAt != "" {
		occurred, err := time.Parse("2006-01-02", req.OccurredAt)
		if err != nil {
			internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid occurred_at, expected YYYY-MM-DD")
			return
		}
		input.OccurredAt = occurred
	}
	result, err := h.service.ApplyMovement(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusCreated, movementResponse{
		MovementID:  result.MovementID,
		Kind:        string(result.Kind),
		VariantID:   result.VariantID,
		Quantity:    result.Quantity,
		UnitCost:    result.UnitCost,
		WAC:         result.WAC,
		OnHand:      result.OnHand,
		Posted:      result.Posted,
		EntryNumber: result.Entry.EntryNumber,
	})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	variantID, _ := strconv.ParseInt(r.URL.Query().Get("variant_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	movements, err := h.service.Movements(r.Context(), variantID, limit)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, movements)
}

func (h *Handler) valuation(w http.ResponseWriter, r *http.Request) {
	valuation, err := h.service.Valuation(r.Context())
	if err != nil {
		h.logger.Error("valuation", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, valuation)
}

func (h *Handler) reconciliation(w http.ResponseWriter, r *http.Request) {
	recon, err := h.service.Reconcile(r.Context(), h.ledger)
	if err != nil {
		h.logger.Error("reconciliation", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, recon)
}

func (h *Handler) periodCosts(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "start date required")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "end date required")
		return
	}
	costs, err := h.service.PeriodCosts(r.Context(), start, end)
	if err != nil {
		h.respondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, costs)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		internalShared.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateMovement):
		internalShared.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNegativeStock):
		internalShared.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidUnitCost),
		errors.Is(err, ErrInvalidMovementKind),
		errors.Is(err, ErrLocationRequired):
		internalShared.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		ledgerShared.RespondError(w, err)
	}
}
