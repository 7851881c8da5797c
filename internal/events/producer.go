// Package events publishes audit events for console mutations to Kafka.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON messages, one writer per topic
type Producer struct {
	mu        sync.Mutex
	writers   map[string]messageWriter
	brokers   []string
	clientID  string
	logger    *zap.Logger
	newWriter func(topic string) messageWriter
}

// Message is a Kafka message whose Value is marshalled to JSON
type Message struct {
	Key     string
	Value   interface{}
	Headers []kafka.Header
}

// NewProducer creates a producer for brokers
func NewProducer(brokers []string, clientID string, logger *zap.Logger) *Producer {
	p := &Producer{
		writers:  make(map[string]messageWriter),
		brokers:  brokers,
		clientID: clientID,
		logger:   logger,
	}
	p.newWriter = p.kafkaWriter
	return p
}

func (p *Producer) kafkaWriter(topic string) messageWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Transport: &kafka.Transport{
			ClientID: p.clientID,
		},
	}
}

func (p *Producer) writer(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// Publish sends msg to topic
func (p *Producer) Publish(ctx context.Context, topic string, msg Message) error {
	value, err := json.Marshal(msg.Value)
	if err != nil {
		p.logger.Error("Failed to marshal message",
			zap.String("topic", topic),
			zap.Error(err))
		return err
	}

	err = p.writer(topic).WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   value,
		Headers: msg.Headers,
		Time:    time.Now(),
	})
	if err != nil {
		p.logger.Error("Failed to publish message",
			zap.String("topic", topic),
			zap.String("key", msg.Key),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Message published",
		zap.String("topic", topic),
		zap.String("key", msg.Key))
	return nil
}

// Close closes every writer
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.logger.Error("Failed to close Kafka writer",
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
	p.writers = make(map[string]messageWriter)
	return nil
}
