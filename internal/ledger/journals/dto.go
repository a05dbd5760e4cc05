package journals

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/forge-erp/forge-erp/internal/ledger/shared"
)

// balanceTolerance is the accepted monetary drift between total debits and
// credits of one entry.
const balanceTolerance = 0.01

// PostingLineInput describes a journal line for a posting request.
type PostingLineInput struct {
	AccountID int64
	Debit     float64
	Credit    float64
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Date          time.Time
	Memo          string
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	CreatedBy     int64
	Lines         []PostingLineInput
}

// Validate ensures posting input meets minimum criteria before any write.
func (in PostingInput) Validate() error {
	if in.Date.IsZero() {
		return errors.New("ledger: entry date required")
	}
	if !ValidReferenceType(in.ReferenceType) {
		return fmt.Errorf("ledger: unknown reference type %q", in.ReferenceType)
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("ledger: line %d missing account", idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("ledger: line %d negative amount: %w", idx, shared.ErrInvalidLine)
		}
		if (line.Debit > 0) == (line.Credit > 0) {
			return fmt.Errorf("ledger: line %d must carry exactly one side: %w", idx, shared.ErrInvalidLine)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if math.Abs(debit-credit) > balanceTolerance {
		return shared.ErrUnbalanced
	}
	return nil
}

// DeleteBySourceInput identifies the originating object whose entry must go.
type DeleteBySourceInput struct {
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	ActorID       int64
}

func (in DeleteBySourceInput) Validate() error {
	if !ValidReferenceType(in.ReferenceType) {
		return fmt.Errorf("ledger: unknown reference type %q", in.ReferenceType)
	}
	if in.ReferenceID == uuid.Nil {
		return errors.New("ledger: reference id required")
	}
	return nil
}
