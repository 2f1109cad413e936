package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/biblioteca/maestros-api/internal/core/domain"
)

// CreateMaestroInput carries the data needed to open a maestro.
type CreateMaestroInput struct {
	Nombre       string
	SaldoInicial decimal.Decimal
}

// CreateMovementInput carries the data needed to record a movement.
type CreateMovementInput struct {
	MaestroID string
	Tipo      domain.MovementType
	Cantidad  decimal.Decimal
	// IdempotencyKey is optional; repeated keys replay the first result.
	IdempotencyKey string
}

// MovementResult is returned by CreateMovement.
type MovementResult struct {
	Movement domain.Movement
	// Saldo is the maestro balance right after this movement was applied.
	// It is zero on replays, where the current balance is not re-read.
	Saldo decimal.Decimal
	// Replayed is true when the Idempotency-Key matched an earlier movement.
	Replayed bool
}

// BalanceCheck compares a maestro's stored saldo with the value recomputed
// from its history.
type BalanceCheck struct {
	MaestroID    string
	Saldo        decimal.Decimal
	SaldoInicial decimal.Decimal
	Recomputed   decimal.Decimal
	Movements    int
	Consistent   bool
}

// LedgerService defines the use-case operations of the back-office. Every
// call receives the caller identity explicitly.
type LedgerService interface {
	CreateMaestro(ctx context.Context, caller domain.Caller, input CreateMaestroInput) (*domain.Maestro, error)
	GetMaestro(ctx context.Context, caller domain.Caller, id string) (*domain.Maestro, error)
	ListMaestros(ctx context.Context, caller domain.Caller) ([]domain.Maestro, error)

	CreateMovement(ctx context.Context, caller domain.Caller, input CreateMovementInput) (*MovementResult, error)
	ListMovements(ctx context.Context, caller domain.Caller, maestroID string) ([]domain.Movement, error)

	RecomputeBalance(ctx context.Context, caller domain.Caller, maestroID string) (*BalanceCheck, error)
	BalanceHistory(ctx context.Context, caller domain.Caller, maestroID string) ([]domain.BalancePoint, error)

	ListUsers(ctx context.Context, caller domain.Caller) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, caller domain.Caller, userID, role string) (*domain.User, error)
}
