package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/store-locator/internal/config"
	"github.com/couchcryptid/store-locator/internal/domain"
)

// Writer produces geocode results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes results in a single WriteMessages call. Results are
// keyed by request id so answers for one id land on one partition.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.GeocodeResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d geocode results: %w", len(msgs), err)
	}
	w.logger.Debug("geocode results published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a GeocodeResult into a Kafka message.
func serializeToMessage(res domain.GeocodeResult) (kafkago.Message, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize geocode result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(res.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "outcome", Value: []byte(res.Outcome())},
			{Key: "processed_at", Value: []byte(res.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
