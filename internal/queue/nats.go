package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// streamPrefix is prepended to the sanitized subject to name its stream
const streamPrefix = "crimecast-"

// NATSPublisher implements Publisher using NATS JetStream
type NATSPublisher struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	streams map[string]struct{}
	mu      sync.Mutex
}

// newNATSPublisher creates a new NATS publisher with JetStream enabled
func newNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("crimecast"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p, err := newNATSPublisherWithConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// newNATSPublisherWithConn creates a publisher on an existing connection
func newNATSPublisherWithConn(conn *nats.Conn) (*NATSPublisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSPublisher{
		conn:    conn,
		js:      js,
		streams: make(map[string]struct{}),
	}, nil
}

// ensureStream creates the stream backing subject if it does not exist
func (q *NATSPublisher) ensureStream(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.streams[subject]; ok {
		return nil
	}

	streamName := streamPrefix + sanitizeStreamName(subject)
	if _, err := q.js.StreamInfo(streamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return fmt.Errorf("failed to look up stream %s: %w", streamName, err)
		}
		_, err = q.js.AddStream(&nats.StreamConfig{
			Name:       streamName,
			Subjects:   []string{subject},
			Storage:    nats.FileStorage,
			Duplicates: 2 * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}

	q.streams[subject] = struct{}{}
	return nil
}

// Publish publishes a message and waits for the JetStream ack
func (q *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.ensureStream(subject); err != nil {
		return err
	}
	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch queues every message asynchronously, then waits for all
// acks or for ctx to end. Messages with an ID carry it as Nats-Msg-Id so
// a republished run is deduplicated by the stream.
func (q *NATSPublisher) PublishBatch(ctx context.Context, messages []Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	for _, msg := range messages {
		if err := q.ensureStream(msg.Subject); err != nil {
			return 0, err
		}
	}

	futures := make([]nats.PubAckFuture, 0, len(messages))
	var queueErr error
	for _, msg := range messages {
		var opts []nats.PubOpt
		if msg.ID != "" {
			opts = append(opts, nats.MsgId(msg.ID))
		}
		future, err := q.js.PublishAsync(msg.Subject, msg.Data, opts...)
		if err != nil {
			if queueErr == nil {
				queueErr = err
			}
			continue
		}
		futures = append(futures, future)
	}

	select {
	case <-q.js.PublishAsyncComplete():
	case <-ctx.Done():
		return 0, fmt.Errorf("timeout waiting for batch publish: %w", ctx.Err())
	}

	successCount := 0
	var ackErr error
	for _, future := range futures {
		select {
		case <-future.Ok():
			successCount++
		case err := <-future.Err():
			if ackErr == nil {
				ackErr = err
			}
		}
	}

	if successCount == 0 {
		if ackErr == nil {
			ackErr = queueErr
		}
		return 0, fmt.Errorf("failed to publish batch: %w", ackErr)
	}
	return successCount, nil
}

// Close drains pending publishes and closes the connection
func (q *NATSPublisher) Close() error {
	if err := q.conn.Drain(); err != nil {
		q.conn.Close()
		return err
	}
	return nil
}

// sanitizeStreamName replaces characters not allowed in stream names.
// Names can only contain A-Z, a-z, 0-9, dash and underscore.
func sanitizeStreamName(subject string) string {
	result := make([]byte, 0, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
