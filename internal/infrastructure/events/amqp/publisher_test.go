package amqp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/infrastructure/events"
)

func TestNewPublishing(t *testing.T) {
	e := domain.MovementRecorded{
		MovementID: "mv-1",
		MaestroID:  "m-1",
		Tipo:       domain.MovementEntrada,
		Cantidad:   decimal.NewFromInt(100),
		Saldo:      decimal.NewFromInt(100),
		Fecha:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	msg, err := newPublishing(e)
	if err != nil {
		t.Fatalf("newPublishing: %v", err)
	}
	if msg.ContentType != "application/json" {
		t.Errorf("unexpected content type %q", msg.ContentType)
	}
	if msg.DeliveryMode != amqp091.Persistent {
		t.Errorf("expected persistent delivery, got %d", msg.DeliveryMode)
	}
	if msg.MessageId != "mv-1" || msg.Type != events.TypeMovementRecorded {
		t.Errorf("unexpected message id/type %q/%q", msg.MessageId, msg.Type)
	}

	var env events.Envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		t.Fatalf("body is not an envelope: %v", err)
	}
	if env.Data.MaestroID != "m-1" {
		t.Errorf("unexpected payload %+v", env.Data)
	}
}

func TestNewPublisher_DialError(t *testing.T) {
	if _, err := NewPublisher("not-a-url", "maestros"); err == nil {
		t.Fatal("expected dial error for malformed url")
	}
}

func TestClose_Nil(t *testing.T) {
	var p Publisher
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
