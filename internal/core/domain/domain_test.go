package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"ADMIN", RoleAdmin, false},
		{"USER", RoleUser, false},
		{" USER ", RoleUser, false},
		{"admin", "", true},
		{"SUPERUSER", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateMovement(t *testing.T) {
	tests := []struct {
		name     string
		tipo     MovementType
		cantidad string
		field    string
	}{
		{"valid entrada", MovementEntrada, "0.01", ""},
		{"valid salida", MovementSalida, "1500", ""},
		{"zero amount", MovementEntrada, "0", "cantidad"},
		{"negative amount", MovementSalida, "-50", "cantidad"},
		{"unknown tipo", MovementType("TRANSFER"), "10", "tipo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMovement(tt.tipo, decimal.RequireFromString(tt.cantidad))
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestMovementSigned(t *testing.T) {
	in := Movement{Tipo: MovementEntrada, Cantidad: decimal.NewFromInt(7)}
	out := Movement{Tipo: MovementSalida, Cantidad: decimal.NewFromInt(7)}

	assert.Equal(t, "7", in.Signed().String())
	assert.Equal(t, "-7", out.Signed().String())
	assert.Equal(t, "0", SumSigned([]Movement{in, out}).String())
}

func TestNewMaestro(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	m, err := NewMaestro("id-1", "  Biblioteca Central ", decimal.NewFromInt(1000), "Ana", now)
	require.NoError(t, err)
	assert.Equal(t, "Biblioteca Central", m.Nombre)
	assert.True(t, m.Saldo.Equal(m.SaldoInicial))
	assert.Equal(t, time.UTC, m.CreatedAt.Location())

	_, err = NewMaestro("id-2", "   ", decimal.Zero, "Ana", now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewMovementSnapshotsMaestroName(t *testing.T) {
	maestro := Maestro{ID: "m1", Nombre: "Hemeroteca"}

	m, err := NewMovement("mv1", maestro, MovementEntrada, decimal.NewFromInt(3), "Luis", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "m1", m.MaestroID)
	assert.Equal(t, "Hemeroteca", m.MaestroNombre)
}

func TestAmountFromFloat(t *testing.T) {
	d, err := AmountFromFloat("saldo", 1000.005)
	require.NoError(t, err)
	assert.Equal(t, "1000.01", d.String())

	_, err = AmountFromFloat("saldo", math.NaN())
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AmountFromFloat("saldo", math.Inf(-1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNotFoundKinds(t *testing.T) {
	assert.ErrorIs(t, ErrMaestroNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrUserNotFound, ErrNotFound)
	assert.Equal(t, "maestro not found", ErrMaestroNotFound.Error())
}
