package service

import (
	"context"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

// PostingEngine implements post_movement (§4.1). Steps 1-3 (amount,
// transaction-id, idempotency-key) are pre-checked here for fast feedback;
// the store's unique constraints and posting trigger are the actual source
// of truth, since the in-memory precheck can always race a concurrent post.
type PostingEngine struct {
	accounts  AccountRepository
	movements MovementRepository
	events    EventPublisher
}

func NewPostingEngine(accounts AccountRepository, movements MovementRepository, events EventPublisher) *PostingEngine {
	return &PostingEngine{accounts: accounts, movements: movements, events: events}
}

func (e *PostingEngine) Post(ctx context.Context, cmd domain.PostCommand) (*domain.Movement, error) {
	if cmd.Amount <= 0 {
		return nil, apierror.InvalidAmount("amount must be positive")
	}

	if existing, err := e.movements.GetByTransactionID(ctx, cmd.TransactionID); err == nil && existing != nil {
		return nil, apierror.DuplicateTransaction(cmd.TransactionID)
	}

	if cmd.IdempotencyKey != nil {
		if existing, err := e.movements.GetByIdempotencyKey(ctx, *cmd.IdempotencyKey); err == nil && existing != nil {
			return nil, apierror.DuplicateIdempotencyKey(existing.MovementID)
		}
	}

	account, err := e.accounts.GetByNumber(ctx, cmd.AccountNumber)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, apierror.AccountNotActive()
	}

	if cmd.MovementType == domain.MovementDebit {
		proposed := account.CurrentBalance + domain.SignedDelta(cmd.MovementType, cmd.Amount)
		if proposed < domain.OverdraftFloor {
			return nil, apierror.InsufficientBalance(account.CurrentBalance, cmd.Amount, domain.OverdraftFloor)
		}
	}

	if cmd.MovementType == domain.MovementReversal {
		if cmd.ReversedMovementID == nil {
			return nil, apierror.InvalidReversal("reversedMovementId is required for a REVERSAL")
		}
		original, err := e.movements.GetByID(ctx, *cmd.ReversedMovementID)
		if err != nil {
			return nil, apierror.InvalidReversal("referenced movement does not exist")
		}
		if original.AccountNumber != cmd.AccountNumber {
			return nil, apierror.InvalidReversal("referenced movement belongs to a different account")
		}
		if original.MovementType == domain.MovementReversal {
			return nil, apierror.InvalidReversal("cannot reverse a reversal")
		}
		if original.Reversed {
			return nil, apierror.InvalidReversal("movement has already been reversed")
		}
	}

	// The insert itself, the account balance/version update, and (for a
	// REVERSAL) flipping the original's reversed flag all happen inside the
	// store's posting trigger as one atomic unit (§4.1 step 7); the
	// repository translates unique-constraint and trigger-raised
	// conflicts back to the typed errors above when the precheck raced.
	movement, err := e.movements.Post(ctx, cmd)
	if err != nil {
		return nil, err
	}

	e.events.PublishMovementCreated(ctx, movement)
	return movement, nil
}

func (e *PostingEngine) Get(ctx context.Context, movementID string) (*domain.Movement, error) {
	return e.movements.GetByID(ctx, movementID)
}

func (e *PostingEngine) List(ctx context.Context, filter domain.ListFilter) ([]domain.Movement, error) {
	return e.movements.List(ctx, filter)
}
