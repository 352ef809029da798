// Package service implements the Customer Lifecycle component (§2,
// "Customer Lifecycle: creates/updates/deletes/activates customers with
// optimistic concurrency and password handling"), generalized from the
// plain-struct-plus-package-level-function idiom
// (internal/domain/account/account.go) into command handlers over a
// repository port, the same shape as the
// internal/infrastructure/database.Repository interface.
package service

import (
	"context"

	"github.com/fandangolas/core-banking-platform/internal/customerservice/domain"
)

// Repository is the persistence port the Customer service depends on.
// Postgres is the only implementation, but the interface keeps the
// lifecycle logic testable without a database.
type Repository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, customerID string) (*domain.Customer, error)
	GetByNationalIdentifier(ctx context.Context, nationalID string) (*domain.Customer, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Customer, error)
	Update(ctx context.Context, cmd domain.UpdateCommand) (*domain.Customer, error)
	PatchState(ctx context.Context, cmd domain.PatchStateCommand) (*domain.Customer, error)
	ChangePassword(ctx context.Context, cmd domain.ChangePasswordCommand) (*domain.Customer, error)
	Delete(ctx context.Context, customerID string, expectedVersion int64) error
}

type ListFilter struct {
	Active *bool
	Page   int
	Size   int
}

// EventPublisher is the Event Fabric port: publishing a customer.* event is
// fire-and-forget and must never fail the command that triggered it.
type EventPublisher interface {
	PublishCustomerCreated(ctx context.Context, c *domain.Customer)
	PublishCustomerUpdated(ctx context.Context, c *domain.Customer)
	PublishCustomerDeleted(ctx context.Context, customerID string)
}

// PasswordHasher abstracts bcrypt so the service layer never imports the
// hashing library directly.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(hash, plain string) bool
}
