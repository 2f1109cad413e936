package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Maestro is a named ledger with an authoritative running balance.
//
// Saldo always equals SaldoInicial plus the signed sum of every movement
// applied to the maestro. It is only ever changed by movement application.
type Maestro struct {
	ID           string          `json:"id"`
	Nombre       string          `json:"nombre"`
	Saldo        decimal.Decimal `json:"saldo"`
	SaldoInicial decimal.Decimal `json:"saldoInicial"`
	CreadoPor    string          `json:"creadoPor"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewMaestro validates the creation input and returns the initial record.
func NewMaestro(id, nombre string, saldoInicial decimal.Decimal, creadoPor string, now time.Time) (Maestro, error) {
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		return Maestro{}, Invalid("nombre", "is required")
	}
	return Maestro{
		ID:           id,
		Nombre:       nombre,
		Saldo:        saldoInicial,
		SaldoInicial: saldoInicial,
		CreadoPor:    creadoPor,
		CreatedAt:    now.UTC(),
	}, nil
}

// Apply returns the maestro with m's signed amount added to its balance.
func (ma Maestro) Apply(m Movement) Maestro {
	ma.Saldo = ma.Saldo.Add(m.Signed())
	return ma
}
