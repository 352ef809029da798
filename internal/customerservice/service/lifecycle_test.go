package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fandangolas/core-banking-platform/internal/customerservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/customerservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

type fakeRepository struct {
	byID map[string]*domain.Customer
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byID: map[string]*domain.Customer{}}
}

func (r *fakeRepository) Create(_ context.Context, c *domain.Customer) error {
	for _, existing := range r.byID {
		if existing.Person.NationalIdentifier == c.Person.NationalIdentifier {
			return apierror.CustomerAlreadyExists(c.Person.NationalIdentifier)
		}
	}
	r.byID[c.CustomerID] = c
	return nil
}

func (r *fakeRepository) GetByID(_ context.Context, customerID string) (*domain.Customer, error) {
	c, ok := r.byID[customerID]
	if !ok {
		return nil, apierror.CustomerNotFound(customerID)
	}
	return c, nil
}

func (r *fakeRepository) GetByNationalIdentifier(_ context.Context, nationalID string) (*domain.Customer, error) {
	for _, c := range r.byID {
		if c.Person.NationalIdentifier == nationalID {
			return c, nil
		}
	}
	return nil, apierror.CustomerNotFound(nationalID)
}

func (r *fakeRepository) List(context.Context, service.ListFilter) ([]domain.Customer, error) {
	panic("not used by these tests")
}

func (r *fakeRepository) Update(_ context.Context, cmd domain.UpdateCommand) (*domain.Customer, error) {
	c, ok := r.byID[cmd.CustomerID]
	if !ok {
		return nil, apierror.CustomerNotFound(cmd.CustomerID)
	}
	if c.Version != cmd.ExpectedVersion {
		return nil, apierror.VersionConflict()
	}
	c.Person = cmd.Person
	c.Version++
	return c, nil
}

func (r *fakeRepository) PatchState(_ context.Context, cmd domain.PatchStateCommand) (*domain.Customer, error) {
	c, ok := r.byID[cmd.CustomerID]
	if !ok {
		return nil, apierror.CustomerNotFound(cmd.CustomerID)
	}
	if c.Version != cmd.ExpectedVersion {
		return nil, apierror.VersionConflict()
	}
	c.Active = cmd.Active
	c.Version++
	return c, nil
}

func (r *fakeRepository) ChangePassword(_ context.Context, cmd domain.ChangePasswordCommand) (*domain.Customer, error) {
	c, ok := r.byID[cmd.CustomerID]
	if !ok {
		return nil, apierror.CustomerNotFound(cmd.CustomerID)
	}
	if c.Version != cmd.ExpectedVersion {
		return nil, apierror.VersionConflict()
	}
	c.PasswordHash = cmd.NewPasswordHash
	c.Version++
	return c, nil
}

func (r *fakeRepository) Delete(_ context.Context, customerID string, expectedVersion int64) error {
	c, ok := r.byID[customerID]
	if !ok {
		return apierror.CustomerNotFound(customerID)
	}
	if c.Version != expectedVersion {
		return apierror.VersionConflict()
	}
	delete(r.byID, customerID)
	return nil
}

type fakePublisher struct {
	created, updated, deleted int
}

func (p *fakePublisher) PublishCustomerCreated(context.Context, *domain.Customer) { p.created++ }
func (p *fakePublisher) PublishCustomerUpdated(context.Context, *domain.Customer) { p.updated++ }
func (p *fakePublisher) PublishCustomerDeleted(context.Context, string)          { p.deleted++ }

// plaintextHasher skips bcrypt's cost so tests run fast; Matches is the
// only behavior the lifecycle depends on.
type plaintextHasher struct{}

func (plaintextHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (plaintextHasher) Matches(hash, plain string) bool   { return hash == "hashed:"+plain }

func validPerson() domain.Person {
	return domain.Person{DisplayName: "Ada Lovelace", NationalIdentifier: "123456789"}
}

func TestCreate_RejectsBlankNationalIdentifier(t *testing.T) {
	lifecycle := service.NewLifecycle(newFakeRepository(), &fakePublisher{}, plaintextHasher{})

	_, err := lifecycle.Create(context.Background(), domain.CreateCommand{
		Person:        domain.Person{DisplayName: "Ada Lovelace"},
		PlainPassword: "s3cret",
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}

func TestCreate_RejectsBlankPassword(t *testing.T) {
	lifecycle := service.NewLifecycle(newFakeRepository(), &fakePublisher{}, plaintextHasher{})

	_, err := lifecycle.Create(context.Background(), domain.CreateCommand{Person: validPerson()})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}

func TestCreate_PersistsAndPublishes(t *testing.T) {
	repo := newFakeRepository()
	publisher := &fakePublisher{}
	lifecycle := service.NewLifecycle(repo, publisher, plaintextHasher{})

	customer, err := lifecycle.Create(context.Background(), domain.CreateCommand{Person: validPerson(), PlainPassword: "s3cret"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), customer.Version)
	assert.True(t, customer.Active)
	assert.Equal(t, "hashed:s3cret", customer.PasswordHash)
	assert.Equal(t, 1, publisher.created)
}

func TestCreate_RejectsDuplicateNationalIdentifier(t *testing.T) {
	repo := newFakeRepository()
	lifecycle := service.NewLifecycle(repo, &fakePublisher{}, plaintextHasher{})

	_, err := lifecycle.Create(context.Background(), domain.CreateCommand{Person: validPerson(), PlainPassword: "s3cret"})
	require.NoError(t, err)

	_, err = lifecycle.Create(context.Background(), domain.CreateCommand{Person: validPerson(), PlainPassword: "other"})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindCustomerAlreadyExists, apiErr.Kind)
}

func TestChangePassword_RejectsWrongCurrentPassword(t *testing.T) {
	repo := newFakeRepository()
	lifecycle := service.NewLifecycle(repo, &fakePublisher{}, plaintextHasher{})
	customer, err := lifecycle.Create(context.Background(), domain.CreateCommand{Person: validPerson(), PlainPassword: "s3cret"})
	require.NoError(t, err)

	_, err = lifecycle.ChangePassword(context.Background(), customer.CustomerID, customer.Version, "wrong", "newpass")

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}

func TestChangePassword_UpdatesHashAndBumpsVersion(t *testing.T) {
	repo := newFakeRepository()
	lifecycle := service.NewLifecycle(repo, &fakePublisher{}, plaintextHasher{})
	customer, err := lifecycle.Create(context.Background(), domain.CreateCommand{Person: validPerson(), PlainPassword: "s3cret"})
	require.NoError(t, err)

	updated, err := lifecycle.ChangePassword(context.Background(), customer.CustomerID, customer.Version, "s3cret", "newpass")

	require.NoError(t, err)
	assert.Equal(t, "hashed:newpass", updated.PasswordHash)
	assert.Equal(t, int64(2), updated.Version)
}

func TestValidate_RejectsInactiveCustomer(t *testing.T) {
	repo := newFakeRepository()
	lifecycle := service.NewLifecycle(repo, &fakePublisher{}, plaintextHasher{})
	customer, err := lifecycle.Create(context.Background(), domain.CreateCommand{Person: validPerson(), PlainPassword: "s3cret"})
	require.NoError(t, err)
	_, err = lifecycle.PatchState(context.Background(), domain.PatchStateCommand{CustomerID: customer.CustomerID, ExpectedVersion: customer.Version, Active: false})
	require.NoError(t, err)

	_, err = lifecycle.Validate(context.Background(), customer.CustomerID)

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindCustomerNotActive, apiErr.Kind)
}

func TestDelete_RejectsStaleVersion(t *testing.T) {
	repo := newFakeRepository()
	lifecycle := service.NewLifecycle(repo, &fakePublisher{}, plaintextHasher{})
	customer, err := lifecycle.Create(context.Background(), domain.CreateCommand{Person: validPerson(), PlainPassword: "s3cret"})
	require.NoError(t, err)

	err = lifecycle.Delete(context.Background(), customer.CustomerID, customer.Version+1)

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindVersionConflict, apiErr.Kind)
}
