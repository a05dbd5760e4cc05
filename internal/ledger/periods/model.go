package periods

import "time"

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period represents one fiscal month. Closing is terminal: there is no
// reopen transition, corrections land in a later open period.
type Period struct {
	ID        int64
	Year      int
	Month     int
	Status    PeriodStatus
	ClosedBy  *int64
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
