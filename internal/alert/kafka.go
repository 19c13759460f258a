package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the security-monitoring topic sink.
type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
	// WriteTimeout bounds each publish. Zero means 10s.
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes high-risk audit events to a Kafka topic consumed by
// security monitoring.
type KafkaNotifier struct {
	writer  kafkaWriter
	timeout time.Duration
}

// NewKafkaNotifier builds the Kafka sink.
func NewKafkaNotifier(cfg KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("alert: kafka sink needs brokers and topic")
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: timeout,
	}
	return &KafkaNotifier{writer: w, timeout: timeout}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("alert: encode event %s: %w", ev.ID, err)
	}
	wctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.writer.WriteMessages(wctx, kafka.Message{
		Key:   []byte(ev.UserID),
		Value: value,
		Time:  time.UnixMilli(ev.TimestampMs),
	})
}

// Close releases the underlying writer.
func (n *KafkaNotifier) Close() error { return n.writer.Close() }
