package domain

import "time"

type MovementType string

const (
	MovementCredit   MovementType = "CREDIT"
	MovementDebit    MovementType = "DEBIT"
	MovementReversal MovementType = "REVERSAL"
)

// Movement is append-only: the only mutation the store ever performs on an
// existing row is flipping Reversed to true when a REVERSAL targeting it is
// posted.
type Movement struct {
	MovementID         string
	AccountNumber       int64
	MovementType        MovementType
	Amount              int64
	BalanceBefore       int64
	BalanceAfter        int64
	Description         string
	Reference            string
	TransactionID        string
	ReversedMovementID   *string
	Reversed             bool
	IdempotencyKey       *string
	CreatedAt            time.Time
	RequestID            string
	CorrelationID        string
}

// PostCommand carries the inputs to post_movement (§4.1).
type PostCommand struct {
	AccountNumber      int64
	MovementType       MovementType
	Amount             int64
	TransactionID      string
	IdempotencyKey     *string
	ReversedMovementID *string
	RequestID          string
	CorrelationID      string
}

type ListFilter struct {
	AccountNumber int64
	MovementType  MovementType
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	Size          int
}

// SignedDelta returns the account-balance effect of a CREDIT or DEBIT
// movement type. REVERSAL's delta is the inverse of the movement it
// targets and is computed by the store's posting trigger, not here.
func SignedDelta(t MovementType, amount int64) int64 {
	if t == MovementDebit {
		return -amount
	}
	return amount
}
