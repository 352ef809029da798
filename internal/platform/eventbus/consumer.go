package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
)

// Handler processes one decoded envelope. Returning an error leaves the
// message unmarked so at-least-once redelivery retries it on the next
// rebalance/restart, per §4.4.
type Handler func(ctx context.Context, envelope Envelope) error

// Consumer wraps a sarama consumer group with manual offset commit, the
// same idiom DepositConsumer uses: AutoCommit disabled,
// explicit MarkMessage + Commit only after the handler succeeds.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler Handler
	log     *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(cfg Config, topics []string, handler Handler, log *logging.Logger) (*Consumer, error) {
	saramaCfg, err := cfg.toSaramaConfig()
	if err != nil {
		return nil, fmt.Errorf("build sarama config: %w", err)
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{group: group, topics: topics, handler: handler, log: log, ctx: ctx, cancel: cancel}, nil
}

func (c *Consumer) Start() {
	c.wg.Add(2)

	go func() {
		defer c.wg.Done()
		h := &groupHandler{handler: c.handler, log: c.log}
		for {
			if err := c.group.Consume(c.ctx, c.topics, h); err != nil {
				c.log.Error("consumer group session ended with error", err, nil)
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		defer c.wg.Done()
		for {
			select {
			case err, ok := <-c.group.Errors():
				if !ok {
					return
				}
				c.log.Error("consumer group error", err, nil)
			case <-c.ctx.Done():
				return
			}
		}
	}()
}

func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.group.Close()
}

type groupHandler struct {
	handler Handler
	log     *logging.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			var envelope Envelope
			if err := json.Unmarshal(message.Value, &envelope); err != nil {
				h.log.Error("failed to decode event envelope, skipping", err, logging.Fields{
					"offset": message.Offset,
					"topic":  message.Topic,
				})
				session.MarkMessage(message, "")
				session.Commit()
				continue
			}

			if err := h.handler(session.Context(), envelope); err != nil {
				h.log.Error("event handler failed, leaving uncommitted for redelivery", err, logging.Fields{
					"eventType": envelope.EventType,
					"eventId":   envelope.EventID,
				})
				continue
			}

			session.MarkMessage(message, "")
			session.Commit()

		case <-session.Context().Done():
			return nil
		}
	}
}
