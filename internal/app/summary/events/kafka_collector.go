package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaCollector publishes events to a topic, keyed by session so one
// session's events stay ordered within a partition.
type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(brokers []string, topic string) *KafkaCollector {
	return &KafkaCollector{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Async:    true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					slog.Error("kafka write failed", "err", err, "messages", len(messages))
				}
			},
		},
	}
}

func (k *KafkaCollector) Collect(event SubmissionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal submission event failed", "err", err)
		return
	}
	if err := k.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.SessionID),
		Value: data,
	}); err != nil {
		slog.Error("kafka write failed", "err", err)
	}
}

func (k *KafkaCollector) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("kafka writer close failed", "err", err)
	}
}
