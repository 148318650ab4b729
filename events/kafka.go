package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher mirrors order events onto a Kafka topic for downstream
// consumers.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaWriter builds the writer used by KafkaPublisher.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := e.Encode(time.Now())
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Name, err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.Name), Value: value}); err != nil {
		return fmt.Errorf("kafka publish %s: %w", e.Name, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
