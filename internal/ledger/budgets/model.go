package budgets

import "time"

// Budget holds the monthly target for one account. Unique per
// (account, year, month) and editable regardless of period status.
type Budget struct {
	ID        int64
	AccountID int64
	Year      int
	Month     int
	Amount    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
