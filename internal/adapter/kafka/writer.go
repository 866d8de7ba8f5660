package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-mcp-service/internal/config"
	"github.com/couchcryptid/weather-mcp-service/internal/domain"
	"github.com/couchcryptid/weather-mcp-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes tool invocation records to the audit topic.
// It implements tools.Recorder.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured audit topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.AuditBrokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 2 * time.Second,
		MaxAttempts:  3,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// Record serializes one invocation and writes it synchronously. Messages for
// the same tool share a key and therefore a partition.
func (w *Writer) Record(ctx context.Context, inv domain.Invocation) error {
	msg, err := serializeToMessage(inv)
	if err != nil {
		w.metrics.AuditPublishErrors.Inc()
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.AuditPublishErrors.Inc()
		return fmt.Errorf("publish invocation: %w", err)
	}
	w.metrics.AuditPublished.Inc()
	w.logger.Debug("invocation published", "tool", inv.Tool, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Invocation into a Kafka message.
func serializeToMessage(inv domain.Invocation) (kafkago.Message, error) {
	data, err := json.Marshal(inv)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize invocation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(inv.Tool),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tool", Value: []byte(inv.Tool)},
			{Key: "status", Value: []byte(inv.Status)},
			{Key: "invoked_at", Value: []byte(inv.InvokedAt.Format(time.RFC3339))},
		},
	}, nil
}
