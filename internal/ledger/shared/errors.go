package shared

import "errors"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrInvalidLine indicates a line with both sides set or a negative amount.
	ErrInvalidLine = errors.New("ledger: line must carry exactly one positive side")
	// ErrPeriodClosed indicates posting attempted against a closed period.
	ErrPeriodClosed = errors.New("ledger: fiscal period is closed")
	// ErrPeriodNotFound indicates missing period.
	ErrPeriodNotFound = errors.New("ledger: fiscal period not found")
	// ErrPeriodAlreadyClosed indicates a second close attempt.
	ErrPeriodAlreadyClosed = errors.New("ledger: fiscal period already closed")
	// ErrJournalNotFound indicates missing entry.
	ErrJournalNotFound = errors.New("ledger: journal entry not found")
	// ErrAccountNotFound indicates missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrDuplicateCode indicates an account code collision.
	ErrDuplicateCode = errors.New("ledger: account code already exists")
	// ErrInvalidCategory indicates a category outside the allow-list for the type.
	ErrInvalidCategory = errors.New("ledger: category not allowed for account type")
	// ErrAccountInUse indicates delete blocked by journal lines or budgets.
	ErrAccountInUse = errors.New("ledger: account referenced by postings or budgets")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = errors.New("ledger: source already linked")
	// ErrSourceConflict indicates the source link already exists.
	ErrSourceConflict = errors.New("ledger: source link conflict")
	// ErrMovementUnmapped indicates a movement type without posting accounts.
	ErrMovementUnmapped = errors.New("ledger: movement type has no account mapping")
	// ErrBudgetNotFound indicates missing budget row.
	ErrBudgetNotFound = errors.New("ledger: budget not found")
)
