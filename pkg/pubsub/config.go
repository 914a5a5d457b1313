package pubsub

import (
	"fmt"
	"strings"
	"time"
)

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string   `mapstructure:"brokers"`
	Topics     []string `mapstructure:"topics"`
	Partitions int      `mapstructure:"partitions"`
}

// Config holds the configuration for the pub/sub system.
type Config struct {
	Driver string      `mapstructure:"driver"` // "redis", "kafka", "none"
	Redis  RedisConfig `mapstructure:"redis"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NewPublisher creates a Publisher for the configured driver.
// The "none" driver returns a publisher that drops every event.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka)
	case "redis":
		return NewRedisPublisher(cfg.Redis)
	case "", "none":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unsupported pubsub driver: %s", cfg.Driver)
	}
}

// Channel joins a topic and a key into a channel name, e.g. "notifications:01HX...".
func Channel(topic, key string) string {
	return topic + ":" + key
}

// splitChannel is the inverse of Channel.
func splitChannel(channel string) (topic, key string, err error) {
	topic, key, ok := strings.Cut(channel, ":")
	if !ok || topic == "" || key == "" {
		return "", "", fmt.Errorf("invalid channel format: %s", channel)
	}
	return topic, key, nil
}
