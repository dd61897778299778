package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/metrics"
	"github.com/nikolayk812/course-checkout/internal/port"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the poller needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Config struct {
	Interval     time.Duration
	BatchSize    int
	WriteTimeout time.Duration
}

// Poller relays committed outbox events to Kafka. Delivery is at least once:
// an event is marked sent only after the broker acknowledged it.
type Poller struct {
	repo    port.OutboxRepository
	writer  MessageWriter
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.CheckoutMetrics
}

func NewPoller(repo port.OutboxRepository, writer MessageWriter, cfg Config, logger *zap.Logger, m *metrics.CheckoutMetrics) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Poller{
		repo:    repo,
		writer:  writer,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// Run publishes pending events every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PublishPending(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn("outbox relay failed", zap.Error(err))
			}
		}
	}
}

// PublishPending publishes one batch in id order and stops at the first
// failure, so events with the same key are never reordered.
func (p *Poller) PublishPending(ctx context.Context) (int, error) {
	events, err := p.repo.FetchPending(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("repo.FetchPending: %w", err)
	}

	var published int
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.countFailure()
			return published, fmt.Errorf("publish event[%s]: %w", event.EventID, err)
		}

		if err := p.repo.MarkSent(ctx, event.ID); err != nil {
			// the event goes out again on the next tick, consumers dedupe by event_id
			return published, fmt.Errorf("repo.MarkSent[%d]: %w", event.ID, err)
		}

		published++
		p.countPublished()
		p.logger.Debug("outbox event published",
			zap.String("event_id", event.EventID.String()),
			zap.String("topic", event.Topic))
	}

	return published, nil
}

func (p *Poller) publish(ctx context.Context, event domain.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.WriteTimeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Topic)},
			{Key: "event_id", Value: []byte(event.EventID.String())},
		},
		Time: event.CreatedAt.UTC(),
	})
}

func (p *Poller) countPublished() {
	if p.metrics != nil {
		p.metrics.OutboxPublished.Inc()
	}
}

func (p *Poller) countFailure() {
	if p.metrics != nil {
		p.metrics.OutboxFailures.Inc()
	}
}
