package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sakashimaa/eventhub/pkg/bus"
	"github.com/sakashimaa/eventhub/pkg/config"
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
	"go.uber.org/zap"
)

const consumerGroup = "order-service-group"

type Consumer struct {
	service service.OrderService
	logger  *zap.Logger
}

func NewConsumer(service service.OrderService, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, cfg config.Config) error {
	consumer := bus.NewConsumer(
		cfg,
		consumerGroup,
		[]string{generalDomain.TopicUserEvents, generalDomain.TopicPaymentEvents},
		c.ProcessMessage,
		c.logger,
	)

	return consumer.Run(ctx)
}

func (c *Consumer) ProcessMessage(ctx context.Context, topic string, body []byte) error {
	mylogger.Info(ctx, c.logger, "Processing message", zap.String("topic", topic))

	var wrapper generalDomain.Envelope
	if err := json.Unmarshal(body, &wrapper); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling wrapper", zap.Error(err))
		return nil
	}

	switch wrapper.Event {
	case generalDomain.EventUserRegistered:
		var event generalDomain.UserRegisteredEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Warn(ctx, c.logger, "Failed to unmarshal event", zap.Error(err))
			return nil
		}

		if err := c.service.HandleUserRegistered(ctx, &event); err != nil {
			if errors.Is(err, service.ErrInvalidRequest) {
				mylogger.Warn(ctx, c.logger, "Skipping invalid register event", zap.Error(err))
				return nil
			}
			mylogger.Error(ctx, c.logger, "Failed to handle register event", zap.Error(err))
			return err
		}
	case generalDomain.EventPaymentSucceeded:
		var event generalDomain.PaymentSucceededEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Warn(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return nil
		}

		err := c.service.HandlePaymentEvent(ctx, domain.PaymentOutcome{
			OrderID:       event.OrderID,
			TransactionID: event.TransactionID,
			Status:        domain.PaymentStatusSuccess,
		})
		if err != nil {
			mylogger.Error(ctx, c.logger, "Failed to apply payment success", zap.Int64("order_id", event.OrderID), zap.Error(err))
			return err
		}
	case generalDomain.EventPaymentFailed:
		var event generalDomain.PaymentFailedEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Warn(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return nil
		}

		err := c.service.HandlePaymentEvent(ctx, domain.PaymentOutcome{
			OrderID:       event.OrderID,
			TransactionID: event.TransactionID,
			Status:        domain.PaymentStatusFailed,
		})
		if err != nil {
			mylogger.Error(ctx, c.logger, "Failed to apply payment failure", zap.Int64("order_id", event.OrderID), zap.Error(err))
			return err
		}
	default:
		mylogger.Warn(ctx, c.logger, "Ignored event type", zap.String("event_type", wrapper.Event))
	}

	return nil
}
