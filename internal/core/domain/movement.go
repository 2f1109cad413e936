package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType is the direction of a movement.
type MovementType string

const (
	MovementEntrada MovementType = "ENTRADA" // credit
	MovementSalida  MovementType = "SALIDA"  // debit
)

func (t MovementType) Valid() bool {
	return t == MovementEntrada || t == MovementSalida
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", Invalid("tipo", "must be one of: ENTRADA SALIDA")
	}
	return t, nil
}

// Movement is an immutable credit or debit against one maestro.
// Cantidad is always positive; the sign comes from Tipo.
type Movement struct {
	ID            string          `json:"id"`
	MaestroID     string          `json:"maestroId"`
	MaestroNombre string          `json:"maestroNombre"`
	Tipo          MovementType    `json:"tipo"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	Responsable   string          `json:"responsable"`
	Fecha         time.Time       `json:"fecha"`
}

// Signed returns +Cantidad for ENTRADA and -Cantidad for SALIDA.
func (m Movement) Signed() decimal.Decimal {
	if m.Tipo == MovementSalida {
		return m.Cantidad.Neg()
	}
	return m.Cantidad
}

// ValidateMovement checks the movement input that does not depend on the
// store: the type must be known and the amount strictly positive.
func ValidateMovement(tipo MovementType, cantidad decimal.Decimal) error {
	if !tipo.Valid() {
		return Invalid("tipo", "must be one of: ENTRADA SALIDA")
	}
	if !cantidad.IsPositive() {
		return Invalid("cantidad", "must be greater than 0")
	}
	return nil
}

// NewMovement builds the record for a movement against maestro. The
// maestro's current name is captured as a snapshot and is never resynced.
func NewMovement(id string, maestro Maestro, tipo MovementType, cantidad decimal.Decimal, responsable string, now time.Time) (Movement, error) {
	if err := ValidateMovement(tipo, cantidad); err != nil {
		return Movement{}, err
	}
	return Movement{
		ID:            id,
		MaestroID:     maestro.ID,
		MaestroNombre: maestro.Nombre,
		Tipo:          tipo,
		Cantidad:      cantidad,
		Responsable:   responsable,
		Fecha:         now.UTC(),
	}, nil
}

// SumSigned adds up the signed amounts of movements.
func SumSigned(movements []Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Signed())
	}
	return total
}

// MovementRecorded is published after a movement and its balance effect
// have been committed.
type MovementRecorded struct {
	MovementID  string          `json:"movementId"`
	MaestroID   string          `json:"maestroId"`
	Tipo        MovementType    `json:"tipo"`
	Cantidad    decimal.Decimal `json:"cantidad"`
	Saldo       decimal.Decimal `json:"saldo"`
	Responsable string          `json:"responsable"`
	Fecha       time.Time       `json:"fecha"`
}
