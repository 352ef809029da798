package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/accountservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

// fakeAccounts and fakeMovements are minimal in-memory stand-ins for the
// postgres-backed repositories, exercising PostingEngine's own precheck
// logic in isolation from the store's posting trigger.

type fakeAccounts struct {
	byNumber map[int64]*domain.Account
}

func newFakeAccounts(accounts ...*domain.Account) *fakeAccounts {
	f := &fakeAccounts{byNumber: map[int64]*domain.Account{}}
	for _, a := range accounts {
		f.byNumber[a.AccountNumber] = a
	}
	return f
}

func (f *fakeAccounts) Create(context.Context, domain.CreateCommand) (*domain.Account, error) {
	panic("not used by these tests")
}
func (f *fakeAccounts) GetByNumber(_ context.Context, accountNumber int64) (*domain.Account, error) {
	a, ok := f.byNumber[accountNumber]
	if !ok {
		return nil, apierror.AccountNotFound("")
	}
	return a, nil
}
func (f *fakeAccounts) List(context.Context, service.AccountListFilter) ([]domain.Account, error) {
	panic("not used by these tests")
}
func (f *fakeAccounts) CountActiveByCustomerAndType(context.Context, string, domain.AccountType) (int, error) {
	return 0, nil
}
func (f *fakeAccounts) CountActiveByCustomer(context.Context, string) (int, error) { return 0, nil }
func (f *fakeAccounts) Update(context.Context, domain.UpdateCommand) (*domain.Account, error) {
	panic("not used by these tests")
}
func (f *fakeAccounts) Delete(context.Context, int64, int64) error { panic("not used by these tests") }
func (f *fakeAccounts) DeleteAllForCustomer(context.Context, string) ([]int64, error) {
	panic("not used by these tests")
}
func (f *fakeAccounts) ListAllForCustomer(context.Context, string) ([]domain.Account, error) {
	panic("not used by these tests")
}

type fakeMovements struct {
	byID            map[string]*domain.Movement
	byTransactionID map[string]*domain.Movement
	byIdempotency   map[string]*domain.Movement
	nextID          int
	posted          []domain.PostCommand
}

func newFakeMovements(existing ...*domain.Movement) *fakeMovements {
	f := &fakeMovements{
		byID:            map[string]*domain.Movement{},
		byTransactionID: map[string]*domain.Movement{},
		byIdempotency:   map[string]*domain.Movement{},
	}
	for _, m := range existing {
		f.byID[m.MovementID] = m
		f.byTransactionID[m.TransactionID] = m
		if m.IdempotencyKey != nil {
			f.byIdempotency[*m.IdempotencyKey] = m
		}
	}
	return f
}

func (f *fakeMovements) Post(_ context.Context, cmd domain.PostCommand) (*domain.Movement, error) {
	f.posted = append(f.posted, cmd)
	f.nextID++
	m := &domain.Movement{
		MovementID:         "m-" + string(rune('0'+f.nextID)),
		AccountNumber:      cmd.AccountNumber,
		MovementType:       cmd.MovementType,
		Amount:             cmd.Amount,
		TransactionID:      cmd.TransactionID,
		IdempotencyKey:     cmd.IdempotencyKey,
		ReversedMovementID: cmd.ReversedMovementID,
		BalanceAfter:       cmd.Amount,
	}
	f.byID[m.MovementID] = m
	return m, nil
}
func (f *fakeMovements) GetByID(_ context.Context, id string) (*domain.Movement, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, apierror.MovementNotFound(id)
	}
	return m, nil
}
func (f *fakeMovements) GetByTransactionID(_ context.Context, id string) (*domain.Movement, error) {
	m, ok := f.byTransactionID[id]
	if !ok {
		return nil, apierror.MovementNotFound(id)
	}
	return m, nil
}
func (f *fakeMovements) GetByIdempotencyKey(_ context.Context, key string) (*domain.Movement, error) {
	m, ok := f.byIdempotency[key]
	if !ok {
		return nil, apierror.MovementNotFound(key)
	}
	return m, nil
}
func (f *fakeMovements) List(context.Context, domain.ListFilter) ([]domain.Movement, error) {
	panic("not used by these tests")
}
func (f *fakeMovements) Summary(context.Context, service.SummaryFilter) (service.Summary, error) {
	panic("not used by these tests")
}

type fakeEvents struct{ movementsPublished int }

func (f *fakeEvents) PublishAccountCreated(context.Context, *domain.Account)    {}
func (f *fakeEvents) PublishAccountUpdated(context.Context, *domain.Account)    {}
func (f *fakeEvents) PublishAccountDeleted(context.Context, int64)              {}
func (f *fakeEvents) PublishMovementCreated(context.Context, *domain.Movement)  { f.movementsPublished++ }

func activeAccount(number, balance int64) *domain.Account {
	return &domain.Account{AccountNumber: number, CurrentBalance: balance, Active: true, AccountType: domain.AccountTypeChecking}
}

func TestPost_CreditIsPostedAndPublished(t *testing.T) {
	accounts := newFakeAccounts(activeAccount(1, 1000))
	movements := newFakeMovements()
	events := &fakeEvents{}
	engine := service.NewPostingEngine(accounts, movements, events)

	movement, err := engine.Post(context.Background(), domain.PostCommand{
		AccountNumber: 1, MovementType: domain.MovementCredit, Amount: 500, TransactionID: "tx-1",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(500), movement.Amount)
	assert.Equal(t, 1, events.movementsPublished)
}

func TestPost_RejectsNonPositiveAmount(t *testing.T) {
	accounts := newFakeAccounts(activeAccount(1, 1000))
	engine := service.NewPostingEngine(accounts, newFakeMovements(), &fakeEvents{})

	_, err := engine.Post(context.Background(), domain.PostCommand{
		AccountNumber: 1, MovementType: domain.MovementCredit, Amount: 0, TransactionID: "tx-1",
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindInvalidAmount, apiErr.Kind)
}

func TestPost_RejectsDuplicateTransactionID(t *testing.T) {
	existing := &domain.Movement{MovementID: "m-0", TransactionID: "tx-1", AccountNumber: 1}
	accounts := newFakeAccounts(activeAccount(1, 1000))
	engine := service.NewPostingEngine(accounts, newFakeMovements(existing), &fakeEvents{})

	_, err := engine.Post(context.Background(), domain.PostCommand{
		AccountNumber: 1, MovementType: domain.MovementCredit, Amount: 100, TransactionID: "tx-1",
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindDuplicateTransaction, apiErr.Kind)
}

func TestPost_RejectsDebitBreachingOverdraftFloor(t *testing.T) {
	accounts := newFakeAccounts(activeAccount(1, -9900))
	engine := service.NewPostingEngine(accounts, newFakeMovements(), &fakeEvents{})

	_, err := engine.Post(context.Background(), domain.PostCommand{
		AccountNumber: 1, MovementType: domain.MovementDebit, Amount: 500, TransactionID: "tx-1",
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindInsufficientBalance, apiErr.Kind)
}

func TestPost_AllowsDebitExactlyAtOverdraftFloor(t *testing.T) {
	accounts := newFakeAccounts(activeAccount(1, -9500))
	engine := service.NewPostingEngine(accounts, newFakeMovements(), &fakeEvents{})

	_, err := engine.Post(context.Background(), domain.PostCommand{
		AccountNumber: 1, MovementType: domain.MovementDebit, Amount: 500, TransactionID: "tx-1",
	})

	assert.NoError(t, err)
}

func TestPost_RejectsMovementOnInactiveAccount(t *testing.T) {
	inactive := activeAccount(1, 1000)
	inactive.Active = false
	accounts := newFakeAccounts(inactive)
	engine := service.NewPostingEngine(accounts, newFakeMovements(), &fakeEvents{})

	_, err := engine.Post(context.Background(), domain.PostCommand{
		AccountNumber: 1, MovementType: domain.MovementCredit, Amount: 100, TransactionID: "tx-1",
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindAccountNotActive, apiErr.Kind)
}

func TestPost_RejectsReversalOfAlreadyReversedMovement(t *testing.T) {
	original := &domain.Movement{MovementID: "m-1", TransactionID: "tx-orig", AccountNumber: 1, MovementType: domain.MovementCredit, Reversed: true}
	accounts := newFakeAccounts(activeAccount(1, 1000))
	engine := service.NewPostingEngine(accounts, newFakeMovements(original), &fakeEvents{})

	target := original.MovementID
	_, err := engine.Post(context.Background(), domain.PostCommand{
		AccountNumber: 1, MovementType: domain.MovementReversal, Amount: 100,
		TransactionID: "tx-rev", ReversedMovementID: &target,
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindInvalidReversal, apiErr.Kind)
}

func TestPost_RejectsReversalAcrossDifferentAccount(t *testing.T) {
	original := &domain.Movement{MovementID: "m-1", TransactionID: "tx-orig", AccountNumber: 2, MovementType: domain.MovementCredit}
	accounts := newFakeAccounts(activeAccount(1, 1000))
	engine := service.NewPostingEngine(accounts, newFakeMovements(original), &fakeEvents{})

	target := original.MovementID
	_, err := engine.Post(context.Background(), domain.PostCommand{
		AccountNumber: 1, MovementType: domain.MovementReversal, Amount: 100,
		TransactionID: "tx-rev", ReversedMovementID: &target,
	})

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindInvalidReversal, apiErr.Kind)
}
