package journals

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// Handler serves journal entry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.post)
	r.Get("/{id}", h.get)
	r.Delete("/source", h.deleteBySource)
}

type lineResponse struct {
	AccountID int64   `json:"account_id"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`
}

type entryResponse struct {
	ID            int64          `json:"id"`
	EntryNumber   string         `json:"entry_number"`
	Date          string         `json:"date"`
	Memo          string         `json:"memo,omitempty"`
	ReferenceType string         `json:"reference_type"`
	ReferenceID   string         `json:"reference_id"`
	Lines         []lineResponse `json:"lines,omitempty"`
}

func toEntryResponse(e JournalEntry) entryResponse {
	out := entryResponse{
		ID:            e.ID,
		EntryNumber:   e.EntryNumber,
		Date:          e.Date.Format("2006-01-02"),
		Memo:          e.Memo,
		ReferenceType: string(e.ReferenceType),
		ReferenceID:   e.ReferenceID.String(),
	}
	for _, line := range e.Lines {
		out.Lines = append(out.Lines, lineResponse{AccountID: line.AccountID, Debit: line.Debit, Credit: line.Credit})
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	internalShared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, toEntryResponse(entry))
}

type postLineRequest struct {
	AccountID int64   `json:"account_id" validate:"required"`
	Debit     float64 `json:"debit" validate:"gte=0"`
	Credit    float64 `json:"credit" validate:"gte=0"`
}

type postEntryRequest struct {
	Date          string            `json:"date" validate:"required"`
	Memo          string            `json:"memo"`
	ReferenceType string            `json:"reference_type"`
	ReferenceID   string            `json:"reference_id"`
	ActorID       int64             `json:"actor_id"`
	Lines         []postLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if err := internalShared.DecodeJSON(w, r, &req); err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		internalShared.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date, expected YYYY-MM-DD")
		return
	}
	refType := ReferenceType(req.ReferenceType)
	if req.ReferenceType == "" {
		refType = ReferenceManual
	}
	var refID uuid.UUID
	if req.ReferenceID != "" {
		refID, err = uuid.Parse(req.ReferenceID)
		if err != nil {
			internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid reference id")
			return
		}
	}
	input := PostingInput{
		Date:          date,
		Memo:          req.Memo,
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedBy:     req.ActorID,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, PostingLineInput{AccountID: line.AccountID, Debit: line.Debit, Credit: line.Credit})
	}
	entry, err := h.service.Post(r.Context(), input)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusCreated, toEntryResponse(entry))
}

type deleteBySourceRequest struct {
	ReferenceType string `json:"reference_type" validate:"required"`
	ReferenceID   string `json:"reference_id" validate:"required,uuid"`
	ActorID       int64  `json:"actor_id"`
}

func (h *Handler) deleteBySource(w http.ResponseWriter, r *http.Request) {
	var req deleteBySourceRequest
	if err := internalShared.DecodeJSON(w, r, &req); err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		internalShared.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	refID, err := uuid.Parse(req.ReferenceID)
	if err != nil {
		internalShared.Problem(w, http.StatusBadRequest, "Bad Request", "invalid reference id")
		return
	}
	result, err := h.service.DeleteBySource(r.Context(), DeleteBySourceInput{
		ReferenceType: ReferenceType(req.ReferenceType),
		ReferenceID:   refID,
		ActorID:       req.ActorID,
	})
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	internalShared.RespondJSON(w, http.StatusOK, toEntryResponse(result))
}
