package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
	Close() error
}

type producer struct {
	syncProducer sarama.SyncProducer
	logger       *zap.Logger
}

func NewProducer(brokers []string, logger *zap.Logger) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Version = sarama.V3_0_0_0

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("error creating producer: %w", err)
	}

	return &producer{syncProducer: p, logger: logger}, nil
}

func (p *producer) ProduceMessage(ctx context.Context, topic string, message interface{}) error {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		return err
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := make([]sarama.RecordHeader, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.ByteEncoder(jsonMsg),
		Headers: headers,
	}

	if key := messageKey(message); key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := p.syncProducer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	mylogger.Debug(
		ctx,
		p.logger,
		"Message sent",
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}

func (p *producer) Close() error {
	return p.syncProducer.Close()
}

// messageKey keeps all events of one aggregate on one partition.
func messageKey(message interface{}) string {
	m, ok := message.(map[string]any)
	if !ok {
		return ""
	}

	key, _ := m["aggregate_id"].(string)
	return key
}
