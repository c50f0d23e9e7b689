package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type HandlerFunc func(ctx context.Context, routingKey string, body []byte) error

// Consumer binds one durable queue to the exchange for every topic and
// redelivers failed messages by nacking with requeue.
type Consumer struct {
	url        string
	exchange   string
	queue      string
	topics     []string
	handler    HandlerFunc
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewConsumer(url, exchange, queue string, topics []string, handler HandlerFunc, logger *zap.Logger) *Consumer {
	return &Consumer{
		url:        url,
		exchange:   exchange,
		queue:      queue,
		topics:     topics,
		handler:    handler,
		logger:     logger,
		retryDelay: time.Second,
	}
}

// Run reconnects with exponential backoff until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			mylogger.Info(ctx, c.logger, "Context cancelled, shutting down rabbitmq consumer", zap.String("queue", c.queue))
			return nil
		}

		mylogger.Warn(ctx, c.logger, "RabbitMQ consume loop ended, reconnecting",
			zap.String("queue", c.queue),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch, c.exchange); err != nil {
		return err
	}

	if err := ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	for _, topic := range c.topics {
		if err := ch.QueueBind(c.queue, topic, c.exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", topic, err)
		}
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.dispatch(ctx, d)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	carrier := propagation.MapCarrier{}
	for k, v := range d.Headers {
		if s, ok := v.(string); ok {
			carrier[k] = s
		}
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)
	ctx, span := otel.Tracer("pkg/rabbitmq/consumer").Start(ctx, "rabbitmq_process "+d.RoutingKey,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", d.RoutingKey),
		),
	)
	defer span.End()

	if err := c.handler(ctx, d.RoutingKey, d.Body); err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, c.logger, "Failed to process message",
			zap.String("routing_key", d.RoutingKey),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
		case <-time.After(c.retryDelay):
		}

		if err := d.Nack(false, true); err != nil {
			mylogger.Warn(ctx, c.logger, "Failed to requeue message", zap.Error(err))
		}
		return
	}

	_ = d.Ack(false)
}
