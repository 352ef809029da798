// Package events adapts the Customer service's EventPublisher port onto the
// shared event fabric, grounded on
// internal/infrastructure/messaging/publisher.go domain-event wiring.
package events

import (
	"context"

	"github.com/fandangolas/core-banking-platform/internal/customerservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/platform/eventbus"
	"github.com/fandangolas/core-banking-platform/internal/platform/tracing"
)

type Publisher struct {
	producer *eventbus.Producer
}

func NewPublisher(producer *eventbus.Producer) *Publisher {
	return &Publisher{producer: producer}
}

type customerPayload struct {
	CustomerID         string `json:"customerId"`
	DisplayName        string `json:"displayName"`
	NationalIdentifier string `json:"nationalIdentifier"`
	Active             bool   `json:"active"`
	Version            int64  `json:"version"`
}

func toPayload(c *domain.Customer) customerPayload {
	return customerPayload{
		CustomerID:         c.CustomerID,
		DisplayName:        c.Person.DisplayName,
		NationalIdentifier: c.Person.NationalIdentifier,
		Active:             c.Active,
		Version:            c.Version,
	}
}

// PublishCustomerCreated publishes customer.created keyed by the customer's
// own id, the natural partition key per §4.4.
func (p *Publisher) PublishCustomerCreated(ctx context.Context, c *domain.Customer) {
	p.producer.Publish(eventbus.TopicCustomerEvents, c.CustomerID, eventbus.EventCustomerCreated,
		tracing.CorrelationIDFromContext(ctx), toPayload(c))
}

func (p *Publisher) PublishCustomerUpdated(ctx context.Context, c *domain.Customer) {
	p.producer.Publish(eventbus.TopicCustomerEvents, c.CustomerID, eventbus.EventCustomerUpdated,
		tracing.CorrelationIDFromContext(ctx), toPayload(c))
}

func (p *Publisher) PublishCustomerDeleted(ctx context.Context, customerID string) {
	p.producer.Publish(eventbus.TopicCustomerEvents, customerID, eventbus.EventCustomerDeleted,
		tracing.CorrelationIDFromContext(ctx), map[string]string{"customerId": customerID})
}
