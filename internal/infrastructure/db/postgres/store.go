package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

const (
	maestroColumns  = `id, nombre, saldo, saldo_inicial, creado_por, created_at`
	movementColumns = `id, maestro_id, maestro_nombre, tipo, cantidad, responsable, fecha`
	userColumns     = `id, email, name, role, password_hash, created_at`
)

type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now, newID: uuid.NewString}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMaestro(row scanner) (*domain.Maestro, error) {
	var m domain.Maestro
	if err := row.Scan(&m.ID, &m.Nombre, &m.Saldo, &m.SaldoInicial, &m.CreadoPor, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func scanMovement(row scanner) (*domain.Movement, error) {
	var mv domain.Movement
	var tipo string
	if err := row.Scan(&mv.ID, &mv.MaestroID, &mv.MaestroNombre, &tipo, &mv.Cantidad, &mv.Responsable, &mv.Fecha); err != nil {
		return nil, err
	}
	mv.Tipo = domain.MovementType(tipo)
	mv.Fecha = mv.Fecha.UTC()
	return &mv, nil
}

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// mapError translates constraint violations into domain errors.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "foreign_key_violation":
		return domain.ErrMaestroNotFound
	case "check_violation":
		return fmt.Errorf("%w: %s", domain.ErrValidation, pqErr.Constraint)
	case "numeric_value_out_of_range":
		return fmt.Errorf("%w: amount exceeds the supported range", domain.ErrValidation)
	}
	return err
}

// --- Maestros ---

func (s *Store) GetMaestro(ctx context.Context, id string) (*domain.Maestro, error) {
	return getMaestro(ctx, s.db, id, "")
}

func getMaestro(ctx context.Context, q queryer, id, suffix string) (*domain.Maestro, error) {
	m, err := scanMaestro(q.QueryRowContext(ctx, `SELECT `+maestroColumns+` FROM maestros WHERE id = $1`+suffix, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMaestroNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get maestro: %w", err)
	}
	return m, nil
}

func (s *Store) ListMaestros(ctx context.Context) ([]domain.Maestro, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+maestroColumns+` FROM maestros ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list maestros: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Maestro, 0)
	for rows.Next() {
		m, err := scanMaestro(rows)
		if err != nil {
			return nil, fmt.Errorf("scan maestro: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *Store) InsertMaestro(ctx context.Context, nombre string, saldoInicial decimal.Decimal, creadoPor string) (*domain.Maestro, error) {
	m, err := domain.NewMaestro(s.newID(), nombre, saldoInicial, creadoPor, s.now())
	if err != nil {
		return nil, err
	}

	const query = `INSERT INTO maestros (id, nombre, saldo, saldo_inicial, creado_por, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, query, m.ID, m.Nombre, m.Saldo, m.SaldoInicial, m.CreadoPor, m.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert maestro: %w", mapError(err))
	}
	return &m, nil
}

// --- Movements ---

func (s *Store) ListMovements(ctx context.Context, maestroID string) ([]domain.Movement, error) {
	return listMovements(ctx, s.db, maestroID)
}

func listMovements(ctx context.Context, q queryer, maestroID string) ([]domain.Movement, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if maestroID == "" {
		rows, err = q.QueryContext(ctx, `SELECT `+movementColumns+` FROM movements ORDER BY seq`)
	} else {
		rows, err = q.QueryContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE maestro_id = $1 ORDER BY seq`, maestroID)
	}
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Movement, 0)
	for rows.Next() {
		mv, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, *mv)
	}
	return out, rows.Err()
}

func (s *Store) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	mv, err := scanMovement(s.db.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMovementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return mv, nil
}

// InsertMovement runs lock, insert and balance update in one transaction.
// The row lock serialises concurrent movements against the same maestro.
func (s *Store) InsertMovement(
	ctx context.Context,
	maestroID string,
	tipo domain.MovementType,
	cantidad decimal.Decimal,
	responsable string,
) (_ *domain.Movement, _ *domain.Maestro, err error) {
	if err := domain.ValidateMovement(tipo, cantidad); err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	maestro, err := getMaestro(ctx, tx, maestroID, " FOR UPDATE")
	if err != nil {
		return nil, nil, err
	}

	mv, err := domain.NewMovement(s.newID(), *maestro, tipo, cantidad, responsable, s.now())
	if err != nil {
		return nil, nil, err
	}

	const insert = `INSERT INTO movements (id, maestro_id, maestro_nombre, tipo, cantidad, responsable, fecha)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = tx.ExecContext(ctx, insert, mv.ID, mv.MaestroID, mv.MaestroNombre, string(mv.Tipo), mv.Cantidad, mv.Responsable, mv.Fecha); err != nil {
		return nil, nil, fmt.Errorf("insert movement: %w", mapError(err))
	}

	var saldo decimal.Decimal
	if err = tx.QueryRowContext(ctx, `UPDATE maestros SET saldo = saldo + $1 WHERE id = $2 RETURNING saldo`, mv.Signed(), maestroID).Scan(&saldo); err != nil {
		return nil, nil, fmt.Errorf("update saldo: %w", mapError(err))
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit movement: %w", err)
	}

	maestro.Saldo = saldo
	return &mv, maestro, nil
}

// GetLedger reads the maestro and its history inside one repeatable-read
// transaction so both come from the same snapshot.
func (s *Store) GetLedger(ctx context.Context, maestroID string) (*domain.Maestro, []domain.Movement, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	maestro, err := getMaestro(ctx, tx, maestroID, "")
	if err != nil {
		return nil, nil, err
	}
	history, err := listMovements(ctx, tx, maestroID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit ledger read: %w", err)
	}
	return maestro, history, nil
}

// --- Users ---

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.Invalid("role", "must be one of: ADMIN USER")
	}

	u, err := scanUser(s.db.QueryRowContext(ctx,
		`UPDATE users SET role = $1 WHERE id = $2 RETURNING `+userColumns, string(role), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}
	return u, nil
}

func (s *Store) EnsureUser(ctx context.Context, u domain.User) (*domain.User, error) {
	email := normalizeEmail(u.Email)
	if email == "" {
		return nil, domain.Invalid("email", "is required")
	}
	if !u.Role.Valid() {
		return nil, domain.Invalid("role", "must be one of: ADMIN USER")
	}
	if u.ID == "" {
		u.ID = s.newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}

	const insert = `INSERT INTO users (id, email, name, role, password_hash, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (email) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, insert, u.ID, email, u.Name, string(u.Role), u.PasswordHash, u.CreatedAt); err != nil {
		return nil, fmt.Errorf("ensure user: %w", mapError(err))
	}
	return s.GetUserByEmail(ctx, email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ ports.EntityStore = (*Store)(nil)
