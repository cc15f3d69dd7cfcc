// Package stream moves reviews and verdicts through Kafka.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"moderation/pkg/models"
)

// MessageReader is implemented by *kafka.Reader. Offsets are committed
// explicitly, so the reader needs a consumer group.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageWriter is implemented by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher writes verdict events keyed by review ID, so every verdict for a
// review lands on the same partition.
type Publisher struct {
	w MessageWriter
}

func NewPublisher(w MessageWriter) *Publisher {
	return &Publisher{w: w}
}

// Publish writes e to the verdict topic.
func (p *Publisher) Publish(ctx context.Context, e models.VerdictEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict event %s: %w", e.ReviewID, err)
	}

	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ReviewID.String()),
		Value: b,
		Time:  e.ModeratedAt,
	})
}

// NewWriter returns a kafka.Writer for topic. A zero batch keeps the
// kafka-go default.
func NewWriter(addr, topic string, batch int) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(addr),
		Topic:        topic,
		BatchSize:    batch,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
}

// CreateTopic creates topic on broker with a single partition and replica.
func CreateTopic(ctx context.Context, broker, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
