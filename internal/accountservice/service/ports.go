// Package service implements the Account Lifecycle (§4.2), the
// Movement Posting Engine (§4.1), and the Statement/Report Engine
// (§4.5), the same command-handler-over-repository-port shape as
// customerservice/service, generalized further from
// in-process account.go functions into store-backed atomic operations.
package service

import (
	"context"
	"time"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, cmd domain.CreateCommand) (*domain.Account, error)
	GetByNumber(ctx context.Context, accountNumber int64) (*domain.Account, error)
	List(ctx context.Context, filter AccountListFilter) ([]domain.Account, error)
	CountActiveByCustomerAndType(ctx context.Context, customerID string, accountType domain.AccountType) (int, error)
	CountActiveByCustomer(ctx context.Context, customerID string) (int, error)
	Update(ctx context.Context, cmd domain.UpdateCommand) (*domain.Account, error)
	Delete(ctx context.Context, accountNumber int64, expectedVersion int64) error
	DeleteAllForCustomer(ctx context.Context, customerID string) ([]int64, error)
	ListAllForCustomer(ctx context.Context, customerID string) ([]domain.Account, error)
}

type AccountListFilter struct {
	CustomerID  string
	AccountType domain.AccountType
	Active      *bool
	Page        int
	Size        int
}

// MovementRepository is the Movement Posting Engine's persistence port.
// Post is the single atomic operation described by §4.1 step 7 — the
// implementation relies on the store's posting trigger for the
// balance/version/reversed effects.
type MovementRepository interface {
	Post(ctx context.Context, cmd domain.PostCommand) (*domain.Movement, error)
	GetByID(ctx context.Context, movementID string) (*domain.Movement, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Movement, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Movement, error)
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Movement, error)
	Summary(ctx context.Context, filter SummaryFilter) (Summary, error)
}

type SummaryFilter struct {
	AccountNumber *int64
	CustomerID    *string
	StartDate     *time.Time
	EndDate       *time.Time
}

type Summary struct {
	Count        int
	TotalCredits int64
	TotalDebits  int64
	Average      float64
	Min          int64
	Max          int64
}

// EventPublisher is the Event Fabric port for account.*/movement.* events.
type EventPublisher interface {
	PublishAccountCreated(ctx context.Context, a *domain.Account)
	PublishAccountUpdated(ctx context.Context, a *domain.Account)
	PublishAccountDeleted(ctx context.Context, accountNumber int64)
	PublishMovementCreated(ctx context.Context, m *domain.Movement)
}

// CustomerValidator is the Resilient Peer Client port (§4.3).
type CustomerValidator interface {
	ValidateCustomer(ctx context.Context, customerID string) (CustomerRef, error)
	Exists(ctx context.Context, customerID string) (bool, error)
}

type CustomerRef struct {
	CustomerID  string
	DisplayName string
	Active      bool
}
