package queue

import (
	"fmt"
	"strings"

	"github.com/soltixdb/crimecast/internal/config"
)

// NewPublisher creates a Publisher based on configuration.
// NATS is used when no type is given.
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	queueType := Type(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = TypeNATS
	}

	switch queueType {
	case TypeNATS:
		return newNATSPublisher(cfg.URL)

	case TypeRedis:
		return newRedisPublisher(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
		})

	case TypeKafka:
		return newKafkaPublisher(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
		})

	case TypeMemory:
		return newMemoryPublisher(), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}
