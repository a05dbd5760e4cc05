package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// Handler serves the chart of accounts endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type accountResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	IsCash      bool   `json:"is_cash"`
}

func toResponse(a Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Type:        string(a.Type),
		Category:    a.Category,
		Description: a.Description,
		IsCash:      a.IsCash,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toResponse(a))
	}
	internalShared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, toResponse(account))
}

type createAccountRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Type        string `json:"type" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`
	IsCash      bool   `json:"is_cash"`
	ActorID     int64  `json:"actor_id"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := internalShared.DecodeJSON(w, r, &req); err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		internalShared.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	account, err := h.service.Create(r.Context(), CreateInput{
		Code:        req.Code,
		Name:        req.Name,
		Type:        AccountType(req.Type),
		Category:    req.Category,
		Description: req.Description,
		IsCash:      req.IsCash,
		ActorID:     req.ActorID,
	})
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusCreated, toResponse(account))
}

type updateAccountRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	IsCash      *bool   `json:"is_cash"`
	ActorID     int64   `json:"actor_id"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	var req updateAccountRequest
	if err := internalShared.DecodeJSON(w, r, &req); err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	input := UpdateInput{
		ID:          id,
		Code:        req.Code,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		IsCash:      req.IsCash,
		ActorID:     req.ActorID,
	}
	if req.Type != nil {
		t := AccountType(*req.Type)
		input.Type = &t
	}
	account, err := h.service.Update(r.Context(), input)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, toResponse(account))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
		return
	}
	actorID, _ := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)
	if err := h.service.Delete(r.Context(), id, actorID); err != nil {
		shared.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
