package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fandangolas/core-banking-platform/internal/customerservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

// Lifecycle is the façade for the Customer Lifecycle component: one small
// struct whose methods delegate to the repository and event publisher
// ports, matching §9's "composition of small services... do not
// replicate the god-class pattern" design note.
type Lifecycle struct {
	repo      Repository
	events    EventPublisher
	passwords PasswordHasher
}

func NewLifecycle(repo Repository, events EventPublisher, passwords PasswordHasher) *Lifecycle {
	return &Lifecycle{repo: repo, events: events, passwords: passwords}
}

// Create checks that the display name and national identifier are not
// blank, hashes the password, persists, and publishes customer.created. Uniqueness is
// enforced by the store's unique constraint (see postgres package); a
// pre-check here would only narrow, not close, the race.
func (l *Lifecycle) Create(ctx context.Context, cmd domain.CreateCommand) (*domain.Customer, error) {
	if err := validatePerson(cmd.Person); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.PlainPassword) == "" {
		return nil, apierror.Validation("password is required")
	}

	hash, err := l.passwords.Hash(cmd.PlainPassword)
	if err != nil {
		return nil, apierror.Internal("failed to hash password")
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		CustomerID:   uuid.NewString(),
		Person:       cmd.Person,
		Active:       true,
		PasswordHash: hash,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := l.repo.Create(ctx, customer); err != nil {
		return nil, translateUniqueViolation(err, cmd.Person.NationalIdentifier)
	}

	l.events.PublishCustomerCreated(ctx, customer)
	return customer, nil
}

func (l *Lifecycle) Get(ctx context.Context, customerID string) (*domain.Customer, error) {
	c, err := l.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (l *Lifecycle) List(ctx context.Context, filter ListFilter) ([]domain.Customer, error) {
	return l.repo.List(ctx, filter)
}

// Update mutates the demographic/contact fields only; Active is immutable
// through this path per §9's Open Question resolution.
func (l *Lifecycle) Update(ctx context.Context, cmd domain.UpdateCommand) (*domain.Customer, error) {
	if err := validatePerson(cmd.Person); err != nil {
		return nil, err
	}
	updated, err := l.repo.Update(ctx, cmd)
	if err != nil {
		return nil, translateUniqueViolation(err, cmd.Person.NationalIdentifier)
	}
	l.events.PublishCustomerUpdated(ctx, updated)
	return updated, nil
}

// PatchState is the only path allowed to mutate Active.
func (l *Lifecycle) PatchState(ctx context.Context, cmd domain.PatchStateCommand) (*domain.Customer, error) {
	updated, err := l.repo.PatchState(ctx, cmd)
	if err != nil {
		return nil, err
	}
	l.events.PublishCustomerUpdated(ctx, updated)
	return updated, nil
}

func (l *Lifecycle) ChangePassword(ctx context.Context, customerID string, expectedVersion int64, currentPassword, newPassword string) (*domain.Customer, error) {
	current, err := l.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !l.passwords.Matches(current.PasswordHash, currentPassword) {
		return nil, apierror.Validation("current password does not match")
	}
	if strings.TrimSpace(newPassword) == "" {
		return nil, apierror.Validation("new password is required")
	}

	newHash, err := l.passwords.Hash(newPassword)
	if err != nil {
		return nil, apierror.Internal("failed to hash password")
	}

	updated, err := l.repo.ChangePassword(ctx, domain.ChangePasswordCommand{
		CustomerID:      customerID,
		ExpectedVersion: expectedVersion,
		NewPasswordHash: newHash,
	})
	if err != nil {
		return nil, err
	}
	l.events.PublishCustomerUpdated(ctx, updated)
	return updated, nil
}

func (l *Lifecycle) Delete(ctx context.Context, customerID string, expectedVersion int64) error {
	if err := l.repo.Delete(ctx, customerID, expectedVersion); err != nil {
		return err
	}
	l.events.PublishCustomerDeleted(ctx, customerID)
	return nil
}

// Validate backs GET /customers/{id}/validate, used by the account
// service's resilient peer client (§4.3): 200 if active, 400 if
// inactive, 404 if missing.
func (l *Lifecycle) Validate(ctx context.Context, customerID string) (*domain.Customer, error) {
	c, err := l.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, apierror.CustomerNotActive()
	}
	return c, nil
}

func validatePerson(p domain.Person) error {
	var violations []apierror.FieldViolation
	if strings.TrimSpace(p.DisplayName) == "" {
		violations = append(violations, apierror.FieldViolation{Field: "displayName", Message: "must not be blank"})
	}
	if strings.TrimSpace(p.NationalIdentifier) == "" {
		violations = append(violations, apierror.FieldViolation{Field: "nationalIdentifier", Message: "must not be blank"})
	}
	if len(violations) > 0 {
		return apierror.ValidationFields(violations)
	}
	return nil
}

// translateUniqueViolation maps a Postgres unique-constraint violation on
// national_identifier back to the domain's CUSTOMER_ALREADY_EXISTS kind,
// the same "store is the source of truth" pattern §4.1 requires for
// movement idempotency.
func translateUniqueViolation(err error, nationalIdentifier string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apierror.CustomerAlreadyExists(nationalIdentifier)
	}
	return err
}
