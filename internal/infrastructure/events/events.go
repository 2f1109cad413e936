// Package events holds the wire format of ledger events and the publisher
// used when no broker is configured.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

// TypeMovementRecorded is the event type carried in every envelope.
const TypeMovementRecorded = "movement.recorded"

// Envelope is what goes on the wire.
type Envelope struct {
	Type       string                  `json:"type"`
	OccurredAt time.Time               `json:"occurredAt"`
	Data       domain.MovementRecorded `json:"data"`
}

// Encode marshals e inside an Envelope.
func Encode(e domain.MovementRecorded) ([]byte, error) {
	return json.Marshal(Envelope{Type: TypeMovementRecorded, OccurredAt: e.Fecha, Data: e})
}

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, e domain.MovementRecorded) error {
	p.log.Info().
		Str("event", TypeMovementRecorded).
		Str("movement_id", e.MovementID).
		Str("maestro_id", e.MaestroID).
		Str("tipo", string(e.Tipo)).
		Str("cantidad", e.Cantidad.String()).
		Str("saldo", e.Saldo.String()).
		Msg("event published")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

var _ ports.EventPublisher = (*LogPublisher)(nil)
