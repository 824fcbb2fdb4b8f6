package reporting

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"joblog-audit/internal/platform/kafka/producer"
)

// Kafka publishes report events to a single topic, keyed by report id so one
// report stream stays ordered per partition. Failures are logged and
// swallowed; a lost report must never fail a citizen's audit.
type Kafka struct {
	producer *producer.Producer
	topic    string
	logger   *slog.Logger
}

// NewKafka creates a Kafka-backed reporter.
func NewKafka(p *producer.Producer, topic string, logger *slog.Logger) *Kafka {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{producer: p, topic: topic, logger: logger}
}

type wireEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	ReportID  string         `json:"report_id"`
	Group     string         `json:"group"`
	Payload   map[string]any `json:"payload"`
}

// Report buffers the event for background delivery.
func (k *Kafka) Report(_ context.Context, reportID, group string, payload map[string]any) {
	value, err := json.Marshal(wireEvent{
		Timestamp: time.Now().UTC(),
		ReportID:  reportID,
		Group:     group,
		Payload:   payload,
	})
	if err != nil {
		k.logger.Error("failed to encode report event", "report_id", reportID, "error", err)
		return
	}

	if err := k.producer.ProduceAsync(&producer.Message{
		Topic: k.topic,
		Key:   []byte(reportID),
		Value: value,
	}); err != nil {
		k.logger.Error("failed to enqueue report event", "report_id", reportID, "error", err)
	}
}
