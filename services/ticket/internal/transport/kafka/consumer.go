package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sakashimaa/eventhub/pkg/bus"
	"github.com/sakashimaa/eventhub/pkg/config"
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
	"github.com/sakashimaa/eventhub/services/ticket/internal/service"
	"go.uber.org/zap"
)

const consumerGroup = "ticket-service-group"

type Consumer struct {
	service service.TicketService
	logger  *zap.Logger
}

func NewConsumer(service service.TicketService, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, cfg config.Config) error {
	consumer := bus.NewConsumer(
		cfg,
		consumerGroup,
		[]string{generalDomain.TopicOrderPaid, generalDomain.TopicOrderCancelled},
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
	case generalDomain.EventOrderPaid:
		var event generalDomain.OrderPaidEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Warn(ctx, c.logger, "Error unmarshalling event structure", zap.Error(err))
			return nil
		}

		if _, err := c.service.IssueForOrder(ctx, &event); err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				mylogger.Warn(ctx, c.logger, "Dropping order.paid for unknown order", zap.Int64("order_id", event.OrderID))
				return nil
			}
			mylogger.Warn(ctx, c.logger, "Error issuing tickets", zap.Int64("order_id", event.OrderID), zap.Error(err))
			return err
		}
	case generalDomain.EventOrderCancelled:
		var event generalDomain.OrderCancelledEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Warn(ctx, c.logger, "Error unmarshalling event structure", zap.Error(err))
			return nil
		}

		if _, err := c.service.RefundOrder(ctx, &event); err != nil {
			mylogger.Warn(ctx, c.logger, "Error refunding tickets", zap.Int64("order_id", event.OrderID), zap.Error(err))
			return err
		}
	default:
		mylogger.Warn(ctx, c.logger, "Ignored event type", zap.String("event_type", wrapper.Event))
	}

	return nil
}
