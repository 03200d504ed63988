package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to a closed publisher
var ErrClosed = errors.New("publisher closed")

// MemoryPublisher keeps published messages in memory.
// It is used for development and tests without a broker.
type MemoryPublisher struct {
	messages map[string][]Message
	seen     map[string]struct{}
	closed   bool
	mu       sync.RWMutex
}

func newMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		messages: make(map[string][]Message),
		seen:     make(map[string]struct{}),
	}
}

// Publish stores a copy of data under subject
func (q *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return q.store(ctx, Message{Subject: subject, Data: data})
}

// PublishBatch stores every message. Messages whose ID was already stored
// are acknowledged without being stored again.
func (q *MemoryPublisher) PublishBatch(ctx context.Context, messages []Message) (int, error) {
	successCount := 0
	for _, msg := range messages {
		if err := q.store(ctx, msg); err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return successCount, err
			}
			continue
		}
		successCount++
	}
	return successCount, nil
}

func (q *MemoryPublisher) store(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if msg.ID != "" {
		if _, dup := q.seen[msg.ID]; dup {
			return nil
		}
		q.seen[msg.ID] = struct{}{}
	}

	// copy so callers may reuse their buffers
	data := make([]byte, len(msg.Data))
	copy(data, msg.Data)
	msg.Data = data

	q.messages[msg.Subject] = append(q.messages[msg.Subject], msg)
	return nil
}

// Messages returns the messages stored for subject in publish order
func (q *MemoryPublisher) Messages(subject string) []Message {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]Message, len(q.messages[subject]))
	copy(out, q.messages[subject])
	return out
}

// GetPendingCount returns the number of messages stored for subject
func (q *MemoryPublisher) GetPendingCount(subject string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.messages[subject])
}

// Close rejects further publishes
func (q *MemoryPublisher) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
