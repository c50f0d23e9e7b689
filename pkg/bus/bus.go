package bus

import (
	"context"
	"strings"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/eventhub/pkg/config"
	"github.com/sakashimaa/eventhub/pkg/kafka"
	"github.com/sakashimaa/eventhub/pkg/rabbitmq"
	"go.uber.org/zap"
)

// Handler receives the raw message body of one topic.
type Handler func(ctx context.Context, topic string, body []byte) error

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
	Close() error
}

type Consumer interface {
	Run(ctx context.Context) error
}

func NewProducer(cfg config.Config, logger *zap.Logger) (Producer, error) {
	if strings.EqualFold(cfg.Bus.Driver, config.BusDriverRabbitMQ) {
		return rabbitmq.NewProducer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	}

	return kafka.NewProducer(cfg.Kafka.Brokers, logger)
}

// NewConsumer subscribes handler to topics; group names the kafka consumer group
// or the rabbitmq queue when none is configured.
func NewConsumer(cfg config.Config, group string, topics []string, handler Handler, logger *zap.Logger) Consumer {
	if strings.EqualFold(cfg.Bus.Driver, config.BusDriverRabbitMQ) {
		queue := cfg.RabbitMQ.Queue
		if queue == "" {
			queue = group
		}

		return rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, queue, topics, rabbitmq.HandlerFunc(handler), logger)
	}

	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = group
	}

	return kafka.NewConsumerGroup(cfg.Kafka.Brokers, groupID, topics, func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		return handler(ctx, msg.Topic, msg.Value)
	}, logger)
}
