// Package domain models the Account service's own entities: Account and
// Movement. Grounded on internal/domain/models.Account,
// generalized from a single in-process balance with a sync.Mutex into a
// store-backed aggregate whose balance is mutated exclusively by the
// posting engine's atomic unit (the database, not an in-process lock).
package domain

import "time"

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
)

// OverdraftFloor is the fixed floor a DEBIT may never drive current_balance
// below, enforced both here (for clear error messages) and by the store's
// posting trigger.
const OverdraftFloor = -10000

// Account is the Account service's aggregate root. CustomerID is a weak
// reference to the Customer service's aggregate — not a foreign key, never
// joined across services.
type Account struct {
	AccountNumber       int64
	CustomerID          string
	CustomerDisplayName string
	AccountType         AccountType
	InitialBalance      int64
	CurrentBalance      int64
	Active              bool
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CreateCommand struct {
	CustomerID          string
	CustomerDisplayName string
	AccountType         AccountType
	InitialBalance      int64
}

// UpdateCommand mutates only AccountType/Active; CurrentBalance,
// InitialBalance, and CustomerID are immutable through this path per spec.
type UpdateCommand struct {
	AccountNumber   int64
	ExpectedVersion int64
	AccountType     AccountType
	Active          bool
}

const MaxActiveAccountsPerCustomer = 5
