// Package messaging carries the service's kafka traffic: game summaries out
// to the analytics pipeline, user records in from the account service.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Envelope is the JSON frame every message travels in.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Message types.
const (
	TypeGameEnded   = "game_ended"
	TypeUserStats   = "user_stats"
	TypeUserCreated = "user_created"
)

type Handler interface {
	Handle(ctx context.Context, envelope *Envelope) error
}

type KafkaClient struct {
	brokers []string
	writer  *kafka.Writer
}

func NewKafkaClient(brokers []string, writeTopic string) (*KafkaClient, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        writeTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			zap.L().Error("kafka write error", zap.String("detail", fmt.Sprintf(msg, args...)))
		}),
	}
	return &KafkaClient{brokers: brokers, writer: writer}, nil
}

func (c *KafkaClient) Close() error {
	return c.writer.Close()
}

// Publish marshals and ships one envelope, keyed so one room's events stay
// ordered within a partition.
func (c *KafkaClient) Publish(ctx context.Context, key string, msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	envelope := Envelope{Type: msgType, Payload: raw, Timestamp: time.Now()}
	value, err := json.Marshal(&envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return c.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// Consume runs a reader loop, routing each envelope to the handler map until
// the context is cancelled. Unknown types are skipped.
func (c *KafkaClient) Consume(ctx context.Context, topic, groupID string, handlers map[string]Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka read failed: %w", err)
		}

		var envelope Envelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			zap.L().Warn("skipping malformed kafka message",
				zap.String("topic", topic), zap.Error(err))
			continue
		}
		handler, ok := handlers[envelope.Type]
		if !ok {
			continue
		}
		if err := handler.Handle(ctx, &envelope); err != nil {
			zap.L().Error("kafka handler failed",
				zap.String("type", envelope.Type), zap.Error(err))
		}
	}
}
