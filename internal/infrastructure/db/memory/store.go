// Package memory is the in-process EntityStore. It is the default backend
// and the reference for the atomicity guarantees the SQL and document
// backends reproduce with transactions.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

// Store keeps all three collections in slices (insertion order) with id
// indexes. A single RWMutex serialises writers; readers get copies.
type Store struct {
	mu sync.RWMutex

	maestros   []domain.Maestro
	maestroIdx map[string]int

	movements   []domain.Movement
	movementIdx map[string]int

	users    []domain.User
	userIdx  map[string]int
	emailIdx map[string]int

	now   func() time.Time
	newID func() string
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		maestroIdx:  make(map[string]int),
		movementIdx: make(map[string]int),
		userIdx:     make(map[string]int),
		emailIdx:    make(map[string]int),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

// --- Maestros ---

func (s *Store) GetMaestro(_ context.Context, id string) (*domain.Maestro, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.maestroIdx[id]
	if !ok {
		return nil, domain.ErrMaestroNotFound
	}
	m := s.maestros[i]
	return &m, nil
}

func (s *Store) ListMaestros(context.Context) ([]domain.Maestro, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Maestro, len(s.maestros))
	copy(out, s.maestros)
	return out, nil
}

func (s *Store) InsertMaestro(_ context.Context, nombre string, saldoInicial decimal.Decimal, creadoPor string) (*domain.Maestro, error) {
	m, err := domain.NewMaestro(s.newID(), nombre, saldoInicial, creadoPor, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maestroIdx[m.ID] = len(s.maestros)
	s.maestros = append(s.maestros, m)
	return &m, nil
}

// --- Movements ---

func (s *Store) ListMovements(_ context.Context, maestroID string) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.movementsOf(maestroID), nil
}

// movementsOf must be called with s.mu held.
func (s *Store) movementsOf(maestroID string) []domain.Movement {
	out := make([]domain.Movement, 0)
	for _, m := range s.movements {
		if maestroID == "" || m.MaestroID == maestroID {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) GetMovement(_ context.Context, id string) (*domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.movementIdx[id]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}
	m := s.movements[i]
	return &m, nil
}

// InsertMovement validates, appends the movement and applies its balance
// effect while holding the write lock, so no reader ever sees one without
// the other and concurrent inserts cannot lose updates.
func (s *Store) InsertMovement(
	_ context.Context,
	maestroID string,
	tipo domain.MovementType,
	cantidad decimal.Decimal,
	responsable string,
) (*domain.Movement, *domain.Maestro, error) {
	if err := domain.ValidateMovement(tipo, cantidad); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.maestroIdx[maestroID]
	if !ok {
		return nil, nil, domain.ErrMaestroNotFound
	}

	mv, err := domain.NewMovement(s.newID(), s.maestros[i], tipo, cantidad, responsable, s.now())
	if err != nil {
		return nil, nil, err
	}

	updated := s.maestros[i].Apply(mv)
	s.maestros[i] = updated
	s.movementIdx[mv.ID] = len(s.movements)
	s.movements = append(s.movements, mv)

	return &mv, &updated, nil
}

func (s *Store) GetLedger(_ context.Context, maestroID string) (*domain.Maestro, []domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.maestroIdx[maestroID]
	if !ok {
		return nil, nil, domain.ErrMaestroNotFound
	}
	m := s.maestros[i]
	return &m, s.movementsOf(maestroID), nil
}

// --- Users ---

func (s *Store) ListUsers(context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.emailIdx[normalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := s.users[i]
	return &u, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.Invalid("role", "must be one of: ADMIN USER")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.userIdx[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	s.users[i].Role = role
	u := s.users[i]
	return &u, nil
}

func (s *Store) EnsureUser(_ context.Context, u domain.User) (*domain.User, error) {
	email := normalizeEmail(u.Email)
	if email == "" {
		return nil, domain.Invalid("email", "is required")
	}
	if !u.Role.Valid() {
		return nil, domain.Invalid("role", "must be one of: ADMIN USER")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.emailIdx[email]; ok {
		existing := s.users[i]
		return &existing, nil
	}

	u.Email = email
	if u.ID == "" {
		u.ID = s.newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.userIdx[u.ID] = len(s.users)
	s.emailIdx[email] = len(s.users)
	s.users = append(s.users, u)
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ ports.EntityStore = (*Store)(nil)
