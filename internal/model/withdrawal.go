package model

import "time"

const WithdrawalStatusRequested = "requested"

// Withdrawal is created only after the balance debit has succeeded.
// Later status transitions are handled by the payout operator, not
// this service.
type Withdrawal struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Destination string    `json:"destination"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Commission is the immutable audit record of one referral commission
// settlement.
type Commission struct {
	ID           int64     `json:"id"`
	ReferrerID   int64     `json:"referrer_id"`
	RefereeID    int64     `json:"referee_id"`
	Amount       int64     `json:"amount"`
	SourceAmount int64     `json:"source_amount"`
	CreatedAt    time.Time `json:"created_at"`
}
