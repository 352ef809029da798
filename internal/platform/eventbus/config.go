// Package eventbus wraps IBM/sarama into the producer/consumer shapes the
// Event Fabric (§4.4) needs: a sync producer behind a bounded
// in-process queue, and a consumer-group wrapper with manual offset commit
// for at-least-once delivery. Grounded on
// internal/infrastructure/messaging/kafka package and deposit_consumer.go.
package eventbus

import (
	"time"

	"github.com/IBM/sarama"
)

type Config struct {
	Brokers           []string
	ClientID          string
	ConsumerGroup     string
	EnableIdempotence bool
	CompressionType   string
	RequiredAcks      string
	MaxRetries        int
	RetryBackoff      time.Duration
}

func DefaultConfig(brokers []string, clientID, consumerGroup string) Config {
	return Config{
		Brokers:           brokers,
		ClientID:          clientID,
		ConsumerGroup:     consumerGroup,
		EnableIdempotence: true,
		CompressionType:   "snappy",
		RequiredAcks:      "all",
		MaxRetries:        5,
		RetryBackoff:      100 * time.Millisecond,
	}
}

func (c Config) toSaramaConfig() (*sarama.Config, error) {
	cfg := sarama.NewConfig()

	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = c.EnableIdempotence
	cfg.Producer.Retry.Max = c.MaxRetries
	cfg.Producer.Retry.Backoff = c.RetryBackoff

	if c.EnableIdempotence {
		cfg.Net.MaxOpenRequests = 1
	} else {
		cfg.Net.MaxOpenRequests = 5
	}

	switch c.RequiredAcks {
	case "all", "-1":
		cfg.Producer.RequiredAcks = sarama.WaitForAll
	case "1":
		cfg.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		cfg.Producer.RequiredAcks = sarama.WaitForAll
	}

	switch c.CompressionType {
	case "none":
		cfg.Producer.Compression = sarama.CompressionNone
	case "gzip":
		cfg.Producer.Compression = sarama.CompressionGZIP
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		cfg.Producer.Compression = sarama.CompressionSnappy
	}

	cfg.ClientID = c.ClientID
	cfg.Version = sarama.V3_0_0_0

	cfg.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.AutoCommit.Enable = false

	return cfg, nil
}
