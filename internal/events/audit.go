package events

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
)

// AuditEvent describes one mutation performed through the gateway
type AuditEvent struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Role       string    `json:"role,omitempty"`
	Method     string    `json:"method"`
	Route      string    `json:"route"`
	Path       string    `json:"path"`
	EntityType string    `json:"entityType,omitempty"`
	Status     int       `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Auditor records audit events
type Auditor interface {
	Audit(ctx context.Context, ev AuditEvent)
	Close() error
}

// Publisher is what the Kafka auditor needs from a producer
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Close() error
}

// Nop discards audit events
type Nop struct{}

func (Nop) Audit(context.Context, AuditEvent) {}
func (Nop) Close() error                      { return nil }

// KafkaAuditor publishes audit events, retrying with exponential backoff.
// Events that still fail are logged and counted, never returned to the caller.
type KafkaAuditor struct {
	pub     Publisher
	topic   string
	logger  *zap.Logger
	metrics *metrics.Metrics
	// maxElapsed bounds the retries of one event
	maxElapsed time.Duration
}

// NewKafkaAuditor creates an auditor publishing to topic
func NewKafkaAuditor(pub Publisher, topic string, logger *zap.Logger, m *metrics.Metrics) *KafkaAuditor {
	if m == nil {
		m = metrics.Discard()
	}
	return &KafkaAuditor{
		pub:        pub,
		topic:      topic,
		logger:     logger,
		metrics:    m,
		maxElapsed: 10 * time.Second,
	}
}

// Audit publishes ev synchronously
func (a *KafkaAuditor) Audit(ctx context.Context, ev AuditEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	msg := Message{
		Key:   ev.Route,
		Value: ev,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("console.audit")},
		},
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = a.maxElapsed

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return a.pub.Publish(ctx, a.topic, msg)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		a.metrics.AuditPublishFailures.Inc()
		a.logger.Error("Failed to publish audit event",
			zap.String("id", ev.ID),
			zap.String("route", ev.Route),
			zap.Int("attempts", attempts),
			zap.Error(err))
	}
}

// Close closes the underlying publisher
func (a *KafkaAuditor) Close() error {
	return a.pub.Close()
}
