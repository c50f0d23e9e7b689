package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type HandlerFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

type ConsumerGroup struct {
	brokers     []string
	groupID     string
	topics      []string
	handlerFunc HandlerFunc
	logger      *zap.Logger
	maxAttempts int
	backoff     time.Duration
}

func NewConsumerGroup(
	brokers []string,
	groupID string,
	topics []string,
	handlerFunc HandlerFunc,
	logger *zap.Logger,
) *ConsumerGroup {
	return &ConsumerGroup{
		brokers:     brokers,
		groupID:     groupID,
		topics:      topics,
		handlerFunc: handlerFunc,
		logger:      logger,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled.
func (c *ConsumerGroup) Run(ctx context.Context) error {
	config := sarama.NewConfig()
	config.Version = sarama.V3_0_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	group, err := sarama.NewConsumerGroup(c.brokers, c.groupID, config)
	if err != nil {
		return fmt.Errorf("error creating consumer group %s: %w", c.groupID, err)
	}

	defer func() {
		if err := group.Close(); err != nil {
			mylogger.Error(ctx, c.logger, "Error closing consumer group", zap.Error(err))
		}
	}()

	go func() {
		for err := range group.Errors() {
			mylogger.Warn(ctx, c.logger, "Consumer group error", zap.String("group_id", c.groupID), zap.Error(err))
		}
	}()

	consumer := &saramaHandler{
		handler:     c.handlerFunc,
		logger:      c.logger,
		maxAttempts: c.maxAttempts,
		backoff:     c.backoff,
	}

	for {
		err := group.Consume(ctx, c.topics, consumer)
		if err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
			mylogger.Error(ctx, c.logger, "Error consuming in consumer loop", zap.Error(err))
		}

		if ctx.Err() != nil {
			mylogger.Info(ctx, c.logger, "Context cancelled, shutting down consumer", zap.String("group_id", c.groupID))
			return nil
		}

		// a failed message ends the session unmarked, pause before it is redelivered
		select {
		case <-ctx.Done():
		case <-time.After(c.backoff):
		}
	}
}

type saramaHandler struct {
	handler     HandlerFunc
	logger      *zap.Logger
	maxAttempts int
	backoff     time.Duration
}

func (h *saramaHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *saramaHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks messages in order and stops at the first one that keeps failing.
// Returning the error ends the session, so the partition resumes from that message
// instead of committing past it.
func (h *saramaHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		ctx, span := h.extractTracing(session.Context(), msg)

		if err := h.handle(ctx, msg); err != nil {
			span.RecordError(err)
			mylogger.Error(
				ctx,
				h.logger,
				"Failed to process message, leaving it for redelivery",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			span.End()

			return fmt.Errorf("message %s/%d/%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
		}

		session.MarkMessage(msg, "")
		span.End()
	}

	return nil
}

func (h *saramaHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var err error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		if err = h.handler(ctx, msg); err == nil {
			return nil
		}

		if attempt < h.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(h.backoff * time.Duration(attempt)):
			}
		}
	}

	return err
}

func (h *saramaHandler) extractTracing(ctx context.Context, msg *sarama.ConsumerMessage) (context.Context, trace.Span) {
	carrier := propagation.MapCarrier{}
	for _, header := range msg.Headers {
		carrier[string(header.Key)] = string(header.Value)
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	return otel.Tracer("pkg/kafka/consumer").Start(ctx, "kafka_process "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
}
