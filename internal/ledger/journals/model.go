package journals

import (
	"time"

	"github.com/google/uuid"
)

// ReferenceType identifies the business event behind a journal entry.
type ReferenceType string

const (
	ReferenceManual            ReferenceType = "MANUAL"
	ReferenceSalesInvoice      ReferenceType = "SALES_INVOICE"
	ReferencePurchaseInvoice   ReferenceType = "PURCHASE_INVOICE"
	ReferenceSalesPayment      ReferenceType = "SALES_PAYMENT"
	ReferencePurchasePayment   ReferenceType = "PURCHASE_PAYMENT"
	ReferenceInventoryMovement ReferenceType = "INVENTORY_MOVEMENT"
	ReferenceDepreciation      ReferenceType = "DEPRECIATION"
	ReferenceOpeningBalance    ReferenceType = "OPENING_BALANCE"
)

// ValidReferenceType reports whether t is a known reference type.
func ValidReferenceType(t ReferenceType) bool {
	switch t {
	case ReferenceManual, ReferenceSalesInvoice, ReferencePurchaseInvoice,
		ReferenceSalesPayment, ReferencePurchasePayment,
		ReferenceInventoryMovement, ReferenceDepreciation, ReferenceOpeningBalance:
		return true
	}
	return false
}

// JournalEntry captures posting metadata. Once posted an entry is immutable
// except through the delete-or-reverse path tied to its source object.
type JournalEntry struct {
	ID            int64
	EntryNumber   string
	Date          time.Time
	Memo          string
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	CreatedBy     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Lines         []JournalLine
}

// JournalLine stores a debit or credit amount for an account.
type JournalLine struct {
	ID        int64
	JournalID int64
	AccountID int64
	Debit     float64
	Credit    float64
	CreatedAt time.Time
}
