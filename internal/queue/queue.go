// Package queue publishes forecast records to a message broker
package queue

import "context"

// Type names a publisher backend
type Type string

const (
	TypeNATS   Type = "nats"
	TypeRedis  Type = "redis"
	TypeKafka  Type = "kafka"
	TypeMemory Type = "memory"
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch publishes messages and waits for all of them to settle.
	// It returns the number that were acknowledged.
	PublishBatch(ctx context.Context, messages []Message) (int, error)

	// Close closes the connection
	Close() error
}

// Message is one payload addressed to a subject. Key is used for
// partitioning where the backend supports it; ID, when set, lets the
// backend drop duplicates of a message it already stored.
type Message struct {
	Subject string
	Key     string
	ID      string
	Data    []byte
}
