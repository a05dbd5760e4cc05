package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// Handler serves the read-only report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/income-statement", h.incomeStatement)
	r.Get("/balance-sheet", h.balanceSheet)
	r.Get("/budget-variance", h.budgetVariance)
	r.Get("/accounts/{id}/balance", h.accountBalance)
}

const dateLayout = "2006-01-02"

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid start date")
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid end date")
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), start, end)
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trial_balance.csv"`)
		if err := WriteTrialBalanceCSV(w, tb); err != nil {
			h.logger.Error("trial balance csv", slog.Any("error", err))
		}
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, tb)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil || start == nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "start date required")
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil || end == nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "end date required")
		return
	}
	report, err := h.service.IncomeStatement(r.Context(), *start, *end)
	if err != nil {
		h.logger.Error("income statement", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil || asOf == nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "as_of date required")
		return
	}
	report, err := h.service.BalanceSheet(r.Context(), *asOf)
	if err != nil {
		h.logger.Error("balance sheet", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) budgetVariance(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	if year == 0 || month == 0 {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "year and month query parameters required")
		return
	}
	report, err := h.service.BudgetVariance(r.Context(), year, month)
	if err != nil {
		h.logger.Error("budget variance", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	start, err := parseDateParam(r, "start")
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid start date")
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid end date")
		return
	}
	balance, err := h.service.AccountBalance(r.Context(), id, start, end)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, balance)
}
