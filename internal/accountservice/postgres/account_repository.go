// Package postgres implements the Account service's persistence ports over
// pgx, grounded on postgres.go pool-and-query idiom and its
// AtomicWithdraw/AtomicDepositWithIdempotency transactional pattern,
// generalized here into the movement posting trigger (see
// migrations/0001_init.sql) plus optimistic-concurrency account updates.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/accountservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, cmd domain.CreateCommand) (*domain.Account, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO account (customer_id, customer_display_name, account_type, initial_balance, current_balance, active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4, TRUE, 1, $5, $5)
		RETURNING account_number`

	var accountNumber int64
	err := r.pool.QueryRow(ctx, query, cmd.CustomerID, cmd.CustomerDisplayName, cmd.AccountType, cmd.InitialBalance, now).Scan(&accountNumber)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}

	return r.GetByNumber(ctx, accountNumber)
}

const selectAccount = `
	SELECT account_number, customer_id, customer_display_name, account_type, initial_balance, current_balance, active, version, created_at, updated_at
	FROM account WHERE account_number = $1`

func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber int64) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, selectAccount, accountNumber))
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.AccountNumber, &a.CustomerID, &a.CustomerDisplayName, &a.AccountType,
		&a.InitialBalance, &a.CurrentBalance, &a.Active, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apierror.AccountNotFound("")
		}
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) List(ctx context.Context, filter service.AccountListFilter) ([]domain.Account, error) {
	query := `
		SELECT account_number, customer_id, customer_display_name, account_type, initial_balance, current_balance, active, version, created_at, updated_at
		FROM account WHERE 1=1`
	var args []interface{}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.AccountType != "" {
		args = append(args, filter.AccountType)
		query += fmt.Sprintf(" AND account_type = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}

	size := filter.Size
	if size <= 0 {
		size = 20
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}
	query += fmt.Sprintf(" ORDER BY created_at LIMIT %d OFFSET %d", size, page*size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.AccountNumber, &a.CustomerID, &a.CustomerDisplayName, &a.AccountType,
			&a.InitialBalance, &a.CurrentBalance, &a.Active, &a.Version, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepository) ListAllForCustomer(ctx context.Context, customerID string) ([]domain.Account, error) {
	return r.List(ctx, service.AccountListFilter{CustomerID: customerID, Size: 1 << 20})
}

func (r *AccountRepository) CountActiveByCustomerAndType(ctx context.Context, customerID string, accountType domain.AccountType) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM account WHERE customer_id = $1 AND account_type = $2 AND active`,
		customerID, accountType).Scan(&count)
	return count, err
}

func (r *AccountRepository) CountActiveByCustomer(ctx context.Context, customerID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM account WHERE customer_id = $1 AND active`, customerID).Scan(&count)
	return count, err
}

func (r *AccountRepository) Update(ctx context.Context, cmd domain.UpdateCommand) (*domain.Account, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE account SET account_type = $1, active = $2, version = version + 1, updated_at = $3
		WHERE account_number = $4 AND version = $5`,
		cmd.AccountType, cmd.Active, time.Now().UTC(), cmd.AccountNumber, cmd.ExpectedVersion,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByNumber(ctx, cmd.AccountNumber); err != nil {
			return nil, err
		}
		return nil, apierror.VersionConflict()
	}
	return r.GetByNumber(ctx, cmd.AccountNumber)
}

func (r *AccountRepository) Delete(ctx context.Context, accountNumber int64, expectedVersion int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM account WHERE account_number = $1 AND version = $2`, accountNumber, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByNumber(ctx, accountNumber); err != nil {
			return err
		}
		return apierror.VersionConflict()
	}
	return tx.Commit(ctx)
}

// DeleteAllForCustomer cascades an account's movements then the account row
// for every account owned by customerID, skipping the balance check (spec
// §4.2's delete_accounts_for_customer entry point). It is itself idempotent:
// deleting an already-deleted customer's accounts (empty set) succeeds
// silently.
func (r *AccountRepository) DeleteAllForCustomer(ctx context.Context, customerID string) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT account_number FROM account WHERE customer_id = $1`, customerID)
	if err != nil {
		return nil, err
	}
	var numbers []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, err
		}
		numbers = append(numbers, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM movement WHERE account_number = ANY($1)`, numbers); err != nil {
		return nil, fmt.Errorf("cascade delete movements: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM account WHERE customer_id = $1`, customerID); err != nil {
		return nil, fmt.Errorf("delete accounts: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return numbers, nil
}
