package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

// Lifecycle is the façade for the Account Lifecycle component (§4.2).
type Lifecycle struct {
	accounts  AccountRepository
	movements MovementRepository
	customers CustomerValidator
	events    EventPublisher
}

func NewLifecycle(accounts AccountRepository, movements MovementRepository, customers CustomerValidator, events EventPublisher) *Lifecycle {
	return &Lifecycle{accounts: accounts, movements: movements, customers: customers, events: events}
}

// Create validates the customer via the resilient peer client, enforces the
// per-customer quota and type-uniqueness rules, and persists the account.
func (l *Lifecycle) Create(ctx context.Context, cmd domain.CreateCommand) (*domain.Account, error) {
	ref, err := l.customers.ValidateCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	cmd.CustomerDisplayName = ref.DisplayName

	return l.createChecked(ctx, cmd)
}

// CreateWithoutValidation is the event-driven entry point (§4.2): a
// customer.created event already establishes the customer exists, so the
// peer-client round trip is skipped, but quota checks still apply.
func (l *Lifecycle) CreateWithoutValidation(ctx context.Context, cmd domain.CreateCommand) (*domain.Account, error) {
	return l.createChecked(ctx, cmd)
}

func (l *Lifecycle) createChecked(ctx context.Context, cmd domain.CreateCommand) (*domain.Account, error) {
	if cmd.InitialBalance < 0 {
		return nil, apierror.InvalidAmount("initial balance must not be negative")
	}

	activeCount, err := l.accounts.CountActiveByCustomer(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	if activeCount >= domain.MaxActiveAccountsPerCustomer {
		return nil, apierror.BusinessRule(fmt.Sprintf("customer already has %d active accounts, the maximum allowed", domain.MaxActiveAccountsPerCustomer))
	}

	typeCount, err := l.accounts.CountActiveByCustomerAndType(ctx, cmd.CustomerID, cmd.AccountType)
	if err != nil {
		return nil, err
	}
	if typeCount > 0 {
		return nil, apierror.BusinessRule("customer already has an active account of type " + string(cmd.AccountType))
	}

	account, err := l.accounts.Create(ctx, cmd)
	if err != nil {
		return nil, err
	}

	l.events.PublishAccountCreated(ctx, account)
	return account, nil
}

func (l *Lifecycle) Get(ctx context.Context, accountNumber int64) (*domain.Account, error) {
	return l.accounts.GetByNumber(ctx, accountNumber)
}

func (l *Lifecycle) List(ctx context.Context, filter AccountListFilter) ([]domain.Account, error) {
	return l.accounts.List(ctx, filter)
}

func (l *Lifecycle) Balance(ctx context.Context, accountNumber int64) (*domain.Account, error) {
	return l.accounts.GetByNumber(ctx, accountNumber)
}

// Update mutates only AccountType/Active under optimistic concurrency.
func (l *Lifecycle) Update(ctx context.Context, cmd domain.UpdateCommand) (*domain.Account, error) {
	updated, err := l.accounts.Update(ctx, cmd)
	if err != nil {
		return nil, err
	}
	l.events.PublishAccountUpdated(ctx, updated)
	return updated, nil
}

// Delete refuses unless current_balance is exactly zero.
func (l *Lifecycle) Delete(ctx context.Context, accountNumber int64, expectedVersion int64) error {
	account, err := l.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		return err
	}
	if account.CurrentBalance != 0 {
		return apierror.BusinessRule("account balance must be zero before it can be deleted")
	}

	if err := l.accounts.Delete(ctx, accountNumber, expectedVersion); err != nil {
		return err
	}
	l.events.PublishAccountDeleted(ctx, accountNumber)
	return nil
}

// DeleteAccountsForCustomer is the event-driven deletion path triggered by
// customer.deleted (§4.4): it skips the balance check because customer
// deletion is sovereign and must not be blocked, cascades each account's
// movements then the account row, and emits account.deleted per account.
func (l *Lifecycle) DeleteAccountsForCustomer(ctx context.Context, customerID string) error {
	deleted, err := l.accounts.DeleteAllForCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	for _, accountNumber := range deleted {
		l.events.PublishAccountDeleted(ctx, accountNumber)
	}
	return nil
}

// ProvisionDefaultAccount backs the customer.created consumer handler: it
// creates a zero-balance SAVINGS account for a newly provisioned customer,
// idempotently — if one already exists (redelivery), the quota/uniqueness
// check turns this into a no-op rather than an error.
func (l *Lifecycle) ProvisionDefaultAccount(ctx context.Context, customerID, displayName string) error {
	_, err := l.createChecked(ctx, domain.CreateCommand{
		CustomerID:          customerID,
		CustomerDisplayName: displayName,
		AccountType:         domain.AccountTypeSavings,
		InitialBalance:      0,
	})
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindBusinessRuleViolation {
		return nil
	}
	return err
}
