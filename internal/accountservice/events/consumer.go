package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/eventbus"
	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
)

// customerEventPayload matches the customer payload customerservice/events
// publishes; only the fields this consumer needs are decoded.
type customerEventPayload struct {
	CustomerID  string `json:"customerId"`
	DisplayName string `json:"displayName"`
}

// cacheInvalidator lets the consumer evict the peer client's exists()
// memoization on any customer.* event without depending on the concrete
// peerclient.Client type.
type cacheInvalidator interface {
	InvalidateCache(ctx context.Context, customerID string)
}

// NewCustomerEventHandler builds the eventbus.Handler for the Account
// service's customer.* consumer (§4.4's consumer guarantees): it
// provisions a default SAVINGS account on customer.created, is a no-op on
// customer.updated beyond cache invalidation, and cascades account deletion
// on customer.deleted. Every branch is idempotent under at-least-once
// redelivery.
func NewCustomerEventHandler(lifecycle *service.Lifecycle, cache cacheInvalidator, log *logging.Logger) eventbus.Handler {
	return func(ctx context.Context, envelope eventbus.Envelope) error {
		var payload customerEventPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("decode customer event payload: %w", err)
		}

		if cache != nil {
			cache.InvalidateCache(ctx, payload.CustomerID)
		}

		switch envelope.EventType {
		case eventbus.EventCustomerCreated:
			if err := lifecycle.ProvisionDefaultAccount(ctx, payload.CustomerID, payload.DisplayName); err != nil {
				return fmt.Errorf("provision default account for customer %s: %w", payload.CustomerID, err)
			}
			return nil

		case eventbus.EventCustomerUpdated:
			log.Debug("customer updated, no account-side action required", logging.Fields{"customerId": payload.CustomerID})
			return nil

		case eventbus.EventCustomerDeleted:
			if err := lifecycle.DeleteAccountsForCustomer(ctx, payload.CustomerID); err != nil {
				return fmt.Errorf("delete accounts for customer %s: %w", payload.CustomerID, err)
			}
			return nil

		default:
			log.Warn("unknown customer event type, skipping", logging.Fields{"eventType": envelope.EventType})
			return nil
		}
	}
}
