package eventbus

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"

	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
)

// queuedMessage is one record waiting for the publisher goroutine to send.
type queuedMessage struct {
	topic    string
	key      string
	envelope Envelope
}

// Producer fronts a sarama sync producer with a bounded in-process queue and
// a single publisher goroutine, per §9's "fire-and-forget event
// publishing" design note. Overflow policy is drop-oldest with a counter,
// grounded on async_producer.go which applies the same
// policy for its own overflow case.
type Producer struct {
	source   string
	syncProd sarama.SyncProducer
	log      *logging.Logger

	queue   chan queuedMessage
	dropped atomic.Int64

	wg     sync.WaitGroup
	stopCh chan struct{}
}

const defaultQueueSize = 4096

func NewProducer(cfg Config, source string, log *logging.Logger) (*Producer, error) {
	saramaCfg, err := cfg.toSaramaConfig()
	if err != nil {
		return nil, fmt.Errorf("build sarama config: %w", err)
	}

	syncProd, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{
		source:   source,
		syncProd: syncProd,
		log:      log,
		queue:    make(chan queuedMessage, defaultQueueSize),
		stopCh:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.loop()
	return p, nil
}

// Publish hands the event to the bounded queue and returns immediately;
// publish failures are retried with backoff by the publisher goroutine and
// never propagate back to the caller (§4.4's fire-and-forget
// guarantee).
func (p *Producer) Publish(topic, key, eventType, correlationID string, payload interface{}) {
	envelope, err := NewEnvelope(eventType, correlationID, payload)
	if err != nil {
		p.log.Error("failed to build event envelope", err, logging.Fields{"eventType": eventType})
		return
	}

	msg := queuedMessage{topic: topic, key: key, envelope: envelope}

	select {
	case p.queue <- msg:
	default:
		// Queue full: drop the oldest to make room rather than block the
		// caller's command path.
		select {
		case <-p.queue:
			p.dropped.Add(1)
		default:
		}
		select {
		case p.queue <- msg:
		default:
			p.dropped.Add(1)
		}
	}
}

// DroppedCount reports how many events were dropped due to queue overflow.
// Neither service reads it, and it is not exported as a Prometheus metric.
func (p *Producer) DroppedCount() int64 {
	return p.dropped.Load()
}

func (p *Producer) loop() {
	defer p.wg.Done()
	for {
		select {
		case msg := <-p.queue:
			p.send(msg)
		case <-p.stopCh:
			return
		}
	}
}

func (p *Producer) send(msg queuedMessage) {
	body, err := json.Marshal(msg.envelope)
	if err != nil {
		p.log.Error("failed to marshal envelope", err, logging.Fields{"eventType": msg.envelope.EventType})
		return
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: msg.topic,
		Key:   sarama.StringEncoder(msg.key),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			header("event-id", msg.envelope.EventID),
			header("event-type", msg.envelope.EventType),
			header("event-timestamp", msg.envelope.Timestamp.Format("2006-01-02T15:04:05Z07:00")),
			header("source", p.source),
			header("x-correlation-id", msg.envelope.CorrelationID),
			header("content-type", "application/json"),
			header("schema-version", SchemaVersion),
			header("entity-id", msg.key),
		},
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 0 // bounded by WithMaxRetries below, not wall time
	err = backoff.Retry(func() error {
		_, _, sendErr := p.syncProd.SendMessage(kafkaMsg)
		return sendErr
	}, backoff.WithMaxRetries(retry, 3))

	if err != nil {
		p.log.Error("failed to publish event after retries", err, logging.Fields{
			"topic":     msg.topic,
			"eventType": msg.envelope.EventType,
			"eventId":   msg.envelope.EventID,
		})
	}
}

func header(key, value string) sarama.RecordHeader {
	return sarama.RecordHeader{Key: []byte(key), Value: []byte(value)}
}

func (p *Producer) Close() error {
	close(p.stopCh)
	p.wg.Wait()
	return p.syncProd.Close()
}
