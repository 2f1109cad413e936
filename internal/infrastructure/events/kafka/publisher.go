package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
	"github.com/biblioteca/maestros-api/internal/infrastructure/events"
)

// Publisher writes movement events to a Kafka topic. Messages are keyed by
// maestro id so every maestro's events land on one partition in order.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, e domain.MovementRecorded) error {
	msg, err := newMessage(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newMessage(e domain.MovementRecorded) (kafka.Message, error) {
	data, err := events.Encode(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.MaestroID),
		Value: data,
		Time:  e.Fecha,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(events.TypeMovementRecorded)},
			{Key: "movement_id", Value: []byte(e.MovementID)},
		},
	}, nil
}

var _ ports.EventPublisher = (*Publisher)(nil)
