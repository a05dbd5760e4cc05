package periods

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// Handler serves fiscal period endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/close", h.close)
}

type periodResponse struct {
	ID       int64  `json:"id"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Status   string `json:"status"`
	ClosedBy int64  `json:"closed_by,omitempty"`
	ClosedAt string `json:"closed_at,omitempty"`
}

func toPeriodResponse(p Period) periodResponse {
	out := periodResponse{
		ID:     p.ID,
		Year:   p.Year,
		Month:  p.Month,
		Status: string(p.Status),
	}
	if p.ClosedBy != nil {
		out.ClosedBy = *p.ClosedBy
	}
	if p.ClosedAt != nil {
		out.ClosedAt = p.ClosedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list periods", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	out := make([]periodResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPeriodResponse(p))
	}
	internalShared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid period id")
		return
	}
	period, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, toPeriodResponse(period))
}

type createPeriodRequest struct {
	Year  int `json:"year" validate:"required"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := internalShared.DecodeJSON(w, r, &req); err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		internalShared.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.Create(r.Context(), req.Year, req.Month)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusCreated, toPeriodResponse(period))
}

type closePeriodRequest struct {
	ActorID int64 `json:"actor_id" validate:"required"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid period id")
		return
	}
	var req closePeriodRequest
	if err := internalShared.DecodeJSON(w, r, &req); err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		internalShared.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.Close(r.Context(), id, req.ActorID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, toPeriodResponse(period))
}
