package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forge-erp/forge-erp/internal/ledger/periods"
	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	List(ctx context.Context, limit int) ([]JournalEntry, error)
	GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction. The
// period operations live here too: the closed check has to run inside the
// same transaction as the insert or a close can slip in between.
type TxRepository interface {
	EnsurePeriodForPosting(ctx context.Context, date time.Time) (periods.Period, error)
	NextOpenPeriodAfter(ctx context.Context, date time.Time) (periods.Period, error)
	NextEntryNumber(ctx context.Context, year int) (string, error)
	InsertJournalEntry(ctx context.Context, in PostingInput, number string) (JournalEntry, error)
	InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) error
	LinkSource(ctx context.Context, refType ReferenceType, refID uuid.UUID, entryID int64) error
	GetBySourceForUpdate(ctx context.Context, refType ReferenceType, refID uuid.UUID) (JournalEntry, []JournalLine, error)
	DeleteEntry(ctx context.Context, entryID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, entry_number, entry_date, memo, reference_type, reference_id, created_by, created_at, updated_at`

func (r *repository) List(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY entry_number DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.EntryNumber, &e.Date, &e.Memo, &e.ReferenceType, &e.ReferenceID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	var e JournalEntry
	err := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID).
		Scan(&e.ID, &e.EntryNumber, &e.Date, &e.Memo, &e.ReferenceType, &e.ReferenceID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, je_id, account_id, debit, credit, created_at FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.Debit, &line.Credit, &line.CreatedAt); err != nil {
			return JournalEntry{}, err
		}
		e.Lines = append(e.Lines, line)
	}
	return e, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	session := &TxSession{Tx: tx}
	if err := fn(ctx, session); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// TxSession implements TxRepository over a pgx transaction. It is exported
// so the costing engine can post ledger entries inside its own inventory
// transaction and commit both as one atomic unit.
type TxSession struct {
	Tx pgx.Tx
}

// NewTxSession wraps an open transaction.
func NewTxSession(tx pgx.Tx) *TxSession {
	return &TxSession{Tx: tx}
}

// EnsurePeriodForPosting upserts the fiscal period covering date and locks
// its row for the rest of the transaction. The upsert makes openness an
// explicit stored fact rather than an absence-implies-open convention, and
// the lock serialises against a concurrent close.
func (s *TxSession) EnsurePeriodForPosting(ctx context.Context, date time.Time) (periods.Period, error) {
	var p periods.Period
	err := s.Tx.QueryRow(ctx, `INSERT INTO fiscal_periods (year, month, status)
VALUES ($1,$2,'OPEN')
ON CONFLICT (year, month) DO UPDATE SET updated_at = NOW()
RETURNING id, year, month, status, closed_by, closed_at, created_at, updated_at`,
		date.Year(), int(date.Month())).
		Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.ClosedBy, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return periods.Period{}, err
	}
	return p, nil
}

// NextOpenPeriodAfter finds the first open period covering date or later.
// Months past the last recorded period count as open too: they spring into
// existence through the posting upsert.
func (s *TxSession) NextOpenPeriodAfter(ctx context.Context, date time.Time) (periods.Period, error) {
	key := date.Year()*12 + int(date.Month())
	var p periods.Period
	err := s.Tx.QueryRow(ctx, `SELECT id, year, month, status, closed_by, closed_at, created_at, updated_at
FROM fiscal_periods WHERE status='OPEN' AND year*12 + month >= $1
ORDER BY year ASC, month ASC LIMIT 1`, key).
		Scan(&p.ID, &p.Year, &p.Month, &p.Status, &p.ClosedBy, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return periods.Period{}, err
	}
	var year, month int
	err = s.Tx.QueryRow(ctx, `SELECT year, month FROM fiscal_periods WHERE year*12 + month >= $1
ORDER BY year DESC, month DESC LIMIT 1`, key).Scan(&year, &month)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.EnsurePeriodForPosting(ctx, date)
		}
		return periods.Period{}, err
	}
	next := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return s.EnsurePeriodForPosting(ctx, next)
}

// NextEntryNumber increments the per-year counter row and formats the
// human readable number. The upsert takes a row lock, so concurrent
// postings for the same year serialise instead of duplicating numbers.
func (s *TxSession) NextEntryNumber(ctx context.Context, year int) (string, error) {
	var seq int64
	err := s.Tx.QueryRow(ctx, `INSERT INTO entry_counters (kind, year, seq) VALUES ('JE', $1, 1)
ON CONFLICT (kind, year) DO UPDATE SET seq = entry_counters.seq + 1
RETURNING seq`, year).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("JE-%d-%04d", year, seq), nil
}

func (s *TxSession) InsertJournalEntry(ctx context.Context, in PostingInput, number string) (JournalEntry, error) {
	entry := JournalEntry{
		EntryNumber:   number,
		Date:          in.Date,
		Memo:          in.Memo,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		CreatedBy:     in.CreatedBy,
	}
	err := s.Tx.QueryRow(ctx, `INSERT INTO journal_entries (entry_number, entry_date, memo, reference_type, reference_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at`,
		number, in.Date, in.Memo, in.ReferenceType, in.ReferenceID, nullInt(in.CreatedBy)).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (s *TxSession) InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) error {
	for _, line := range lines {
		if _, err := s.Tx.Exec(ctx, `INSERT INTO journal_lines (je_id, account_id, debit, credit)
VALUES ($1,$2,$3,$4)`, entryID, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit)); err != nil {
			return err
		}
	}
	return nil
}

func (s *TxSession) LinkSource(ctx context.Context, refType ReferenceType, refID uuid.UUID, entryID int64) error {
	_, err := s.Tx.Exec(ctx, `INSERT INTO source_links (reference_type, reference_id, je_id) VALUES ($1,$2,$3)`, refType, refID, entryID)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrSourceConflict
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *TxSession) GetBySourceForUpdate(ctx context.Context, refType ReferenceType, refID uuid.UUID) (JournalEntry, []JournalLine, error) {
	var e JournalEntry
	err := s.Tx.QueryRow(ctx, `SELECT e.id, e.entry_number, e.entry_date, e.memo, e.reference_type, e.reference_id, e.created_by, e.created_at, e.updated_at
FROM journal_entries e
JOIN source_links sl ON sl.je_id = e.id
WHERE sl.reference_type=$1 AND sl.reference_id=$2
FOR UPDATE OF e`, refType, refID).
		Scan(&e.ID, &e.EntryNumber, &e.Date, &e.Memo, &e.ReferenceType, &e.ReferenceID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, nil, shared.ErrJournalNotFound
		}
		return JournalEntry{}, nil, err
	}
	rows, err := s.Tx.Query(ctx, `SELECT id, je_id, account_id, debit, credit, created_at FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, e.ID)
	if err != nil {
		return JournalEntry{}, nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.Debit, &line.Credit, &line.CreatedAt); err != nil {
			return JournalEntry{}, nil, err
		}
		lines = append(lines, line)
	}
	return e, lines, rows.Err()
}

// DeleteEntry removes the entry, its lines, and its source link in one go.
func (s *TxSession) DeleteEntry(ctx context.Context, entryID int64) error {
	if _, err := s.Tx.Exec(ctx, `DELETE FROM journal_lines WHERE je_id=$1`, entryID); err != nil {
		return err
	}
	if _, err := s.Tx.Exec(ctx, `DELETE FROM source_links WHERE je_id=$1`, entryID); err != nil {
		return err
	}
	cmd, err := s.Tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

// Helpers
func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
