package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/accountservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

type MovementRepository struct {
	pool *pgxpool.Pool
}

func NewMovementRepository(pool *pgxpool.Pool) *MovementRepository {
	return &MovementRepository{pool: pool}
}

// Post inserts the movement row; migrations/0001_init.sql's
// trg_post_movement_effects computes balance_before/balance_after, updates
// the account's current_balance/version, and (for a REVERSAL) flips the
// original's reversed flag, all before this INSERT commits.
func (r *MovementRepository) Post(ctx context.Context, cmd domain.PostCommand) (*domain.Movement, error) {
	query := `
		INSERT INTO movement (account_number, movement_type, amount, description, reference,
		                       transaction_id, reversed_movement_id, idempotency_key,
		                       request_id, correlation_id, balance_before, balance_after)
		VALUES ($1, $2, $3, '', '', $4, $5, $6, $7, $8, 0, 0)
		RETURNING movement_id, balance_before, balance_after, reversed, created_at`

	var m domain.Movement
	err := r.pool.QueryRow(ctx, query,
		cmd.AccountNumber, cmd.MovementType, cmd.Amount, cmd.TransactionID,
		cmd.ReversedMovementID, cmd.IdempotencyKey, cmd.RequestID, cmd.CorrelationID,
	).Scan(&m.MovementID, &m.BalanceBefore, &m.BalanceAfter, &m.Reversed, &m.CreatedAt)
	if err != nil {
		return nil, translatePostError(err, cmd)
	}

	m.AccountNumber = cmd.AccountNumber
	m.MovementType = cmd.MovementType
	m.Amount = cmd.Amount
	m.TransactionID = cmd.TransactionID
	m.IdempotencyKey = cmd.IdempotencyKey
	m.ReversedMovementID = cmd.ReversedMovementID
	m.RequestID = cmd.RequestID
	m.CorrelationID = cmd.CorrelationID
	return &m, nil
}

// translatePostError maps the store's unique-constraint violations and the
// posting trigger's RAISE EXCEPTION messages back to the typed errors spec
// §4.1 requires — the store is the source of truth even when the caller's
// precheck raced and missed a concurrent duplicate or conflict.
func translatePostError(err error, cmd domain.PostCommand) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "uq_movement_transaction_id":
				return apierror.DuplicateTransaction(cmd.TransactionID)
			case "uq_movement_idempotency_key":
				if cmd.IdempotencyKey != nil {
					return apierror.DuplicateIdempotencyKey(*cmd.IdempotencyKey)
				}
			}
			return apierror.DuplicateTransaction(cmd.TransactionID)
		}

		switch pgErr.Message {
		case "ACCOUNT_NOT_FOUND_FOR_MOVEMENT":
			return apierror.AccountNotFound(fmt.Sprintf("%d", cmd.AccountNumber))
		case "OVERDRAFT_FLOOR_BREACHED":
			return apierror.InsufficientBalance(0, cmd.Amount, domain.OverdraftFloor)
		case "REVERSAL_TARGET_NOT_FOUND":
			return apierror.InvalidReversal("referenced movement does not exist")
		case "REVERSAL_ACCOUNT_MISMATCH":
			return apierror.InvalidReversal("referenced movement belongs to a different account")
		case "REVERSAL_OF_REVERSAL":
			return apierror.InvalidReversal("cannot reverse a reversal")
		case "ALREADY_REVERSED":
			return apierror.InvalidReversal("movement has already been reversed")
		}
	}
	return err
}

const selectMovement = `
	SELECT movement_id, account_number, movement_type, amount, balance_before, balance_after,
	       description, reference, transaction_id, reversed_movement_id, reversed,
	       idempotency_key, created_at, request_id, correlation_id
	FROM movement WHERE movement_id = $1`

func (r *MovementRepository) GetByID(ctx context.Context, movementID string) (*domain.Movement, error) {
	return scanMovement(r.pool.QueryRow(ctx, selectMovement, movementID))
}

func (r *MovementRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Movement, error) {
	query := `
		SELECT movement_id, account_number, movement_type, amount, balance_before, balance_after,
		       description, reference, transaction_id, reversed_movement_id, reversed,
		       idempotency_key, created_at, request_id, correlation_id
		FROM movement WHERE transaction_id = $1`
	return scanMovement(r.pool.QueryRow(ctx, query, transactionID))
}

func (r *MovementRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Movement, error) {
	query := `
		SELECT movement_id, account_number, movement_type, amount, balance_before, balance_after,
		       description, reference, transaction_id, reversed_movement_id, reversed,
		       idempotency_key, created_at, request_id, correlation_id
		FROM movement WHERE idempotency_key = $1`
	return scanMovement(r.pool.QueryRow(ctx, query, key))
}

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var m domain.Movement
	err := row.Scan(
		&m.MovementID, &m.AccountNumber, &m.MovementType, &m.Amount, &m.BalanceBefore, &m.BalanceAfter,
		&m.Description, &m.Reference, &m.TransactionID, &m.ReversedMovementID, &m.Reversed,
		&m.IdempotencyKey, &m.CreatedAt, &m.RequestID, &m.CorrelationID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apierror.MovementNotFound("")
		}
		return nil, err
	}
	return &m, nil
}

func (r *MovementRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Movement, error) {
	query := `
		SELECT movement_id, account_number, movement_type, amount, balance_before, balance_after,
		       description, reference, transaction_id, reversed_movement_id, reversed,
		       idempotency_key, created_at, request_id, correlation_id
		FROM movement WHERE account_number = $1`
	args := []interface{}{filter.AccountNumber}

	if filter.MovementType != "" {
		args = append(args, filter.MovementType)
		query += fmt.Sprintf(" AND movement_type = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
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

	var out []domain.Movement
	for rows.Next() {
		var m domain.Movement
		if err := rows.Scan(
			&m.MovementID, &m.AccountNumber, &m.MovementType, &m.Amount, &m.BalanceBefore, &m.BalanceAfter,
			&m.Description, &m.Reference, &m.TransactionID, &m.ReversedMovementID, &m.Reversed,
			&m.IdempotencyKey, &m.CreatedAt, &m.RequestID, &m.CorrelationID,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MovementRepository) Summary(ctx context.Context, filter service.SummaryFilter) (service.Summary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount) FILTER (WHERE movement_type = 'CREDIT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE movement_type = 'DEBIT'), 0),
			COALESCE(AVG(amount), 0),
			COALESCE(MIN(amount), 0),
			COALESCE(MAX(amount), 0)
		FROM movement WHERE 1=1`
	var args []interface{}

	if filter.AccountNumber != nil {
		args = append(args, *filter.AccountNumber)
		query += fmt.Sprintf(" AND account_number = $%d", len(args))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND account_number IN (SELECT account_number FROM account WHERE customer_id = $%d)", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	var s service.Summary
	err := r.pool.QueryRow(ctx, query, args...).Scan(&s.Count, &s.TotalCredits, &s.TotalDebits, &s.Average, &s.Min, &s.Max)
	return s, err
}
