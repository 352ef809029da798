package domain

import "time"

// Customer is the Customer service's aggregate root. Identity is the
// opaque CustomerID (128-bit, a UUID); NationalIdentifier is globally
// unique and immutable after creation; Version is the optimistic
// concurrency counter bumped on every mutation.
type Customer struct {
	CustomerID   string
	Person       Person
	Active       bool
	PasswordHash string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateCommand carries the inputs to create a new customer. PlainPassword
// is hashed by the service layer before the domain ever sees a Customer
// value — PasswordHash is the only form that reaches persistence.
type CreateCommand struct {
	Person        Person
	PlainPassword string
}

// UpdateCommand carries the mutable subset of a customer's attributes.
// Active is deliberately absent: per §9's Open Question resolution,
// the generic update path never mutates Active; only the dedicated
// patch-state command does.
type UpdateCommand struct {
	CustomerID     string
	ExpectedVersion int64
	Person          Person
}

// PatchStateCommand toggles Active through the dedicated endpoint.
type PatchStateCommand struct {
	CustomerID      string
	ExpectedVersion int64
	Active          bool
}

// ChangePasswordCommand replaces PasswordHash after verifying the current
// password out of band (service layer, not domain — hashing is an
// infrastructure concern).
type ChangePasswordCommand struct {
	CustomerID      string
	ExpectedVersion int64
	NewPasswordHash string
}
