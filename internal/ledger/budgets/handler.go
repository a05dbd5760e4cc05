package budgets

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// Handler serves budget endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers budget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/", h.set)
	r.Delete("/{id}", h.delete)
}

type budgetResponse struct {
	ID        int64   `json:"id"`
	AccountID int64   `json:"account_id"`
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Amount    float64 `json:"amount"`
}

func toBudgetResponse(b Budget) budgetResponse {
	return budgetResponse{ID: b.ID, AccountID: b.AccountID, Year: b.Year, Month: b.Month, Amount: b.Amount}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	if year == 0 || month == 0 {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "year and month query parameters required")
		return
	}
	items, err := h.service.ListForPeriod(r.Context(), year, month)
	if err != nil {
		h.logger.Error("list budgets", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	out := make([]budgetResponse, 0, len(items))
	for _, b := range items {
		out = append(out, toBudgetResponse(b))
	}
	internalShared.RespondJSON(w, http.StatusOK, out)
}

type setBudgetRequest struct {
	AccountID int64   `json:"account_id" validate:"required"`
	Year      int     `json:"year" validate:"required"`
	Month     int     `json:"month" validate:"required,min=1,max=12"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := internalShared.DecodeJSON(w, r, &req); err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		internalShared.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	budget, err := h.service.Set(r.Context(), SetInput{
		AccountID: req.AccountID,
		Year:      req.Year,
		Month:     req.Month,
		Amount:    req.Amount,
	})
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid budget id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		shared.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
