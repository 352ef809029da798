// Package events adapts the Account service's EventPublisher port onto the
// shared event fabric and hosts the customer.* consumer that drives
// cross-service compensation (§4.4), grounded on
// internal/infrastructure/messaging/publisher.go and deposit_consumer.go.
package events

import (
	"context"
	"strconv"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/platform/eventbus"
	"github.com/fandangolas/core-banking-platform/internal/platform/tracing"
)

type Publisher struct {
	producer *eventbus.Producer
}

func NewPublisher(producer *eventbus.Producer) *Publisher {
	return &Publisher{producer: producer}
}

type accountPayload struct {
	AccountNumber int64  `json:"accountNumber"`
	CustomerID    string `json:"customerId"`
	AccountType   string `json:"accountType"`
	Active        bool   `json:"active"`
	Version       int64  `json:"version"`
}

func toAccountPayload(a *domain.Account) accountPayload {
	return accountPayload{
		AccountNumber: a.AccountNumber,
		CustomerID:    a.CustomerID,
		AccountType:   string(a.AccountType),
		Active:        a.Active,
		Version:       a.Version,
	}
}

func key(accountNumber int64) string {
	return strconv.FormatInt(accountNumber, 10)
}

func (p *Publisher) PublishAccountCreated(ctx context.Context, a *domain.Account) {
	p.producer.Publish(eventbus.TopicAccountEvents, key(a.AccountNumber), eventbus.EventAccountCreated,
		tracing.CorrelationIDFromContext(ctx), toAccountPayload(a))
}

func (p *Publisher) PublishAccountUpdated(ctx context.Context, a *domain.Account) {
	p.producer.Publish(eventbus.TopicAccountEvents, key(a.AccountNumber), eventbus.EventAccountUpdated,
		tracing.CorrelationIDFromContext(ctx), toAccountPayload(a))
}

func (p *Publisher) PublishAccountDeleted(ctx context.Context, accountNumber int64) {
	p.producer.Publish(eventbus.TopicAccountEvents, key(accountNumber), eventbus.EventAccountDeleted,
		tracing.CorrelationIDFromContext(ctx), map[string]int64{"accountNumber": accountNumber})
}

type movementPayload struct {
	MovementID    string `json:"movementId"`
	AccountNumber int64  `json:"accountNumber"`
	MovementType  string `json:"movementType"`
	Amount        int64  `json:"amount"`
	BalanceAfter  int64  `json:"balanceAfter"`
}

func (p *Publisher) PublishMovementCreated(ctx context.Context, m *domain.Movement) {
	p.producer.Publish(eventbus.TopicMovementEvents, key(m.AccountNumber), eventbus.EventMovementCreated,
		tracing.CorrelationIDFromContext(ctx), movementPayload{
			MovementID:    m.MovementID,
			AccountNumber: m.AccountNumber,
			MovementType:  string(m.MovementType),
			Amount:        m.Amount,
			BalanceAfter:  m.BalanceAfter,
		})
}
