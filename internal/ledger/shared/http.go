package shared

import (
	"errors"
	"net/http"

	internalShared "github.com/forge-erp/forge-erp/internal/shared"
)

// RespondError translates ledger errors into problem responses. Anything
// unrecognised falls through to an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		internalShared.RespondError(w, err)
		return
	}
	internalShared.Problem(w, status, http.StatusText(status), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrJournalNotFound),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrPeriodNotFound),
		errors.Is(err, ErrBudgetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPeriodClosed),
		errors.Is(err, ErrPeriodAlreadyClosed),
		errors.Is(err, ErrDuplicateCode),
		errors.Is(err, ErrAccountInUse),
		errors.Is(err, ErrSourceAlreadyLinked),
		errors.Is(err, ErrSourceConflict),
		errors.Is(err, internalShared.ErrLockHeld):
		return http.StatusConflict
	case errors.Is(err, ErrUnbalanced),
		errors.Is(err, ErrTooFewLines),
		errors.Is(err, ErrInvalidLine),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrMovementUnmapped):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
