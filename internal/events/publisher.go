package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/hosted-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/hosted-checkout/internal/models"
	"github.com/akylbek/payment-system/hosted-checkout/internal/telemetry"
)

const OutcomeTopic = "payment.outcome"

// Publisher is an OutcomePublisher that owns a connection.
type Publisher interface {
	interfaces.OutcomePublisher
	io.Closer
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaWriter returns an async writer: WriteMessages only enqueues, and
// delivery failures are logged from the completion callback.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  OutcomeTopic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             logDeliveryFailure,
	}
}

func logDeliveryFailure(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	telemetry.Logger.Error("Failed to deliver outcome events",
		zap.String("topic", OutcomeTopic),
		zap.Int("count", len(messages)),
		zap.Error(err),
	)
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt models.OutcomeEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal outcome event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.CheckoutID),
		Value: value,
	}); err != nil {
		return fmt.Errorf("write outcome event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.OutcomeEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
