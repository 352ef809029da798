package service

import (
	"context"
	"time"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

// StatementEngine implements the Statement/Report Engine (§4.5): a
// read-only, deterministic projection over the account/movement store.
type StatementEngine struct {
	accounts  AccountRepository
	movements MovementRepository
	customers CustomerValidator
}

func NewStatementEngine(accounts AccountRepository, movements MovementRepository, customers CustomerValidator) *StatementEngine {
	return &StatementEngine{accounts: accounts, movements: movements, customers: customers}
}

type AccountStatement struct {
	AccountNumber            int64
	AccountType              domain.AccountType
	InitialBalanceForPeriod  int64
	FinalBalanceForPeriod    int64
	Movements                []domain.Movement
}

type Statement struct {
	CustomerID    string
	StartDate     time.Time
	EndDate       time.Time
	Accounts      []AccountStatement
	TotalCredits  int64
	TotalDebits   int64
	TotalMovements int
	NetChange     int64
}

func (s *StatementEngine) AccountStatement(ctx context.Context, customerID string, start, end time.Time) (*Statement, error) {
	if start.After(end) {
		return nil, apierror.Validation("start date must not be after end date")
	}
	if _, err := s.customers.ValidateCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListAllForCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	windowStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	windowEnd := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())

	statement := &Statement{CustomerID: customerID, StartDate: start, EndDate: end}

	for _, account := range accounts {
		movements, err := s.movements.List(ctx, domain.ListFilter{
			AccountNumber: account.AccountNumber,
			StartDate:     &windowStart,
			EndDate:       &windowEnd,
			Size:          1 << 20,
		})
		if err != nil {
			return nil, err
		}

		var periodEffect int64
		for _, m := range movements {
			effect := signedEffect(m)
			periodEffect += effect
			if effect > 0 {
				statement.TotalCredits += effect
			} else {
				statement.TotalDebits += -effect
			}
		}
		statement.TotalMovements += len(movements)

		statement.Accounts = append(statement.Accounts, AccountStatement{
			AccountNumber:           account.AccountNumber,
			AccountType:             account.AccountType,
			InitialBalanceForPeriod: account.CurrentBalance - periodEffect,
			FinalBalanceForPeriod:   account.CurrentBalance,
			Movements:               movements,
		})
	}

	statement.NetChange = statement.TotalCredits - statement.TotalDebits
	return statement, nil
}

// MovementsSummary requires at least one of accountNumber/customerId.
func (s *StatementEngine) MovementsSummary(ctx context.Context, filter SummaryFilter) (Summary, error) {
	if filter.AccountNumber == nil && filter.CustomerID == nil {
		return Summary{}, apierror.Validation("either accountNumber or customerId is required")
	}
	return s.movements.Summary(ctx, filter)
}

// signedEffect returns a movement's net effect on account balance,
// accounting for REVERSAL's inverse-of-original semantics via
// balance_after - balance_before (always correct regardless of type).
func signedEffect(m domain.Movement) int64 {
	return m.BalanceAfter - m.BalanceBefore
}
