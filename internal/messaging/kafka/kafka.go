package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/minhvu/catalog-backend/internal/messaging"
)

// Broker publishes and consumes JSON events over Kafka. One long-lived
// writer is shared across topics (the topic travels on each message).
type Broker struct {
	brokers []string
	writer  *kafkaGo.Writer
}

// NewBroker creates a Kafka-backed publisher and subscriber.
func NewBroker(brokers []string) *Broker {
	return &Broker{
		brokers: brokers,
		writer: &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(brokers...),
			Balancer: &kafkaGo.LeastBytes{},
		},
	}
}

var _ messaging.Publisher = (*Broker)(nil)
var _ messaging.Subscriber = (*Broker)(nil)

// Close releases the underlying writer.
func (b *Broker) Close() error {
	return b.writer.Close()
}

func (b *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return b.writer.WriteMessages(ctx, kafkaGo.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
}

// Consume reads messages from topic in a loop and calls handler for each.
// It blocks until the context is cancelled; handler errors are logged and
// the loop continues.
func (b *Broker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: b.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Consumer shutting down", "topic", topic)
				return
			}
			slog.Error("Error reading message", "topic", topic, "err", err)
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			slog.Error("Error handling message", "topic", topic, "err", err)
		}
	}
}
