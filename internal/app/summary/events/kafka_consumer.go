package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer reads submission events back from the topic and feeds them
// through the same batching Consumer as the in-memory path.
type KafkaConsumer struct {
	reader *kafka.Reader
	sink   Sink
}

func NewKafkaConsumer(brokers []string, topic, groupID string, sink Sink) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		sink: sink,
	}
}

func (k *KafkaConsumer) Run(ctx context.Context) {
	events := make(chan SubmissionEvent, 100)
	go k.read(ctx, events)
	NewConsumer(events, k.sink).Run(ctx)
}

func (k *KafkaConsumer) read(ctx context.Context, out chan<- SubmissionEvent) {
	defer close(out)
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			slog.Error("kafka read failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		event, err := DecodeEvent(msg.Value)
		if err != nil {
			slog.Error("decode submission event failed", "err", err, "offset", msg.Offset)
			continue
		}
		select {
		case out <- event:
		case <-ctx.Done():
			return
		}
	}
}

func (k *KafkaConsumer) Close() {
	if err := k.reader.Close(); err != nil {
		slog.Error("kafka reader close failed", "err", err)
	}
}

// DecodeEvent parses one message value written by KafkaCollector.
func DecodeEvent(data []byte) (SubmissionEvent, error) {
	var e SubmissionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return SubmissionEvent{}, err
	}
	if e.ID == "" || e.SessionID == "" {
		return SubmissionEvent{}, errors.New("submission event missing id or session_id")
	}
	return e, nil
}
