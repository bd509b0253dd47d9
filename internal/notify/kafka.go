package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventTypeOrderConfirmed записывается в заголовок event_type сообщений о подтверждении.
const EventTypeOrderConfirmed = "order.confirmed"

// KafkaPublisher публикует уведомления о подтверждении заказа в топик Kafka.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaProducer создаёт синхронного продюсера с подтверждением записи всеми репликами.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaPublisher создаёт издателя поверх готового продюсера.
func NewKafkaPublisher(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// SendOrderConfirmation публикует событие подтверждения заказа. Ключом сообщения служит номер заказа,
// поэтому события одного заказа попадают в одну партицию.
func (p *KafkaPublisher) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if msg.EventID == "" {
		msg.EventID = uuid.NewString()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return Result{}, fmt.Errorf("marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.OrderNumber),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(EventTypeOrderConfirmed)},
			{Key: []byte("event_id"), Value: []byte(msg.EventID)},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("send message to kafka: %w", err)
	}

	p.logger.Info("order confirmation published",
		zap.String("event_id", msg.EventID),
		zap.String("order", msg.OrderNumber),
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return Result{Success: true}, nil
}

// Close закрывает продюсера Kafka.
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
