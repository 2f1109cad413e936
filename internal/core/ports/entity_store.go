package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/biblioteca/maestros-api/internal/core/domain"
)

// MaestroStore persists maestros.
type MaestroStore interface {
	GetMaestro(ctx context.Context, id string) (*domain.Maestro, error)
	// ListMaestros returns every maestro in insertion order.
	ListMaestros(ctx context.Context) ([]domain.Maestro, error)
	InsertMaestro(ctx context.Context, nombre string, saldoInicial decimal.Decimal, creadoPor string) (*domain.Maestro, error)
}

// MovementStore persists movements and applies their balance effect.
type MovementStore interface {
	// ListMovements returns the movements referencing maestroID in insertion
	// order, or every movement when maestroID is empty.
	ListMovements(ctx context.Context, maestroID string) ([]domain.Movement, error)
	GetMovement(ctx context.Context, id string) (*domain.Movement, error)

	// InsertMovement records a movement and updates the referenced maestro's
	// saldo as one indivisible step. It returns the new movement together
	// with the maestro as it is after the update.
	InsertMovement(
		ctx context.Context,
		maestroID string,
		tipo domain.MovementType,
		cantidad decimal.Decimal,
		responsable string,
	) (*domain.Movement, *domain.Maestro, error)

	// GetLedger returns a maestro and its full movement history read from a
	// single consistent snapshot.
	GetLedger(ctx context.Context, maestroID string) (*domain.Maestro, []domain.Movement, error)
}

// UserStore persists users. Users are seeded, never created by the ledger.
type UserStore interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUserRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	// EnsureUser stores u unless a user with the same email already exists,
	// and returns the stored record either way.
	EnsureUser(ctx context.Context, u domain.User) (*domain.User, error)
}

// EntityStore is the single source of truth for all three collections.
type EntityStore interface {
	MaestroStore
	MovementStore
	UserStore
	Ping(ctx context.Context) error
}
