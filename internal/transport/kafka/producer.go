package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	json "github.com/goccy/go-json"
)

var newSyncProducer = sarama.NewSyncProducer

// Producer publishes notifications to one topic, keyed by contact id so a
// person's messages stay ordered within a partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
}

// NewProducer connects to brokers. It returns nil without error when Kafka is not configured.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	// без брокеров или топика работаем без кафки
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	sp, err := newSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewProducerFrom(sp, topic), nil
}

// NewProducerFrom wraps an existing sarama producer.
func NewProducerFrom(sp sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: sp, topic: topic, now: time.Now}
}

// Publish sends one notification and waits for the broker ack.
func (p *Producer) Publish(ctx context.Context, externalID, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dto := NewNotificationDTO(externalID, message, p.now())
	if dto.ExternalContactID == "" {
		return Permanent(errors.New("empty external_contact_id"))
	}
	value, err := json.Marshal(dto)
	if err != nil {
		return Permanent(fmt.Errorf("encode notification: %w", err))
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(dto.ExternalContactID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		if isPermanent(err) {
			return Permanent(err)
		}
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}

func isPermanent(err error) bool {
	return errors.Is(err, sarama.ErrMessageSizeTooLarge) ||
		errors.Is(err, sarama.ErrInvalidMessage) ||
		errors.Is(err, sarama.ErrInvalidTopic) ||
		errors.Is(err, sarama.ErrTopicAuthorizationFailed)
}
