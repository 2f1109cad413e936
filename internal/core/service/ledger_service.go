package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/biblioteca/maestros-api/internal/pkg/metrics"
	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

// EventDispatcher abstracts the asynchronous event queue.
type EventDispatcher interface {
	Enqueue(event domain.MovementRecorded)
}

// LedgerService enforces authorization and delegates every mutation to the
// EntityStore, which owns atomicity.
type LedgerService struct {
	store      ports.EntityStore
	idem       ports.IdempotencyStore
	dispatcher EventDispatcher
	log        zerolog.Logger
}

// NewLedgerService builds the service. idem and dispatcher may be nil, in
// which case idempotency keys are ignored and no events are emitted.
func NewLedgerService(
	store ports.EntityStore,
	idem ports.IdempotencyStore,
	dispatcher EventDispatcher,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{store: store, idem: idem, dispatcher: dispatcher, log: log}
}

func authenticated(caller domain.Caller) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}

func requireAdmin(caller domain.Caller) error {
	if err := authenticated(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// ── Maestros ──────────────────────────────────────────────────────────────────

// CreateMaestro opens a maestro. Only administrators may call it; creadoPor
// is always the caller's name.
func (s *LedgerService) CreateMaestro(ctx context.Context, caller domain.Caller, input ports.CreateMaestroInput) (*domain.Maestro, error) {
	if err := requireAdmin(caller); err != nil {
		s.log.Warn().Str("caller", caller.ID).Msg("create maestro denied")
		return nil, err
	}

	m, err := s.store.InsertMaestro(ctx, input.Nombre, input.SaldoInicial, caller.Name)
	if err != nil {
		return nil, err
	}

	metrics.MaestrosCreatedTotal.Inc()
	s.log.Info().
		Str("maestro_id", m.ID).
		Str("nombre", m.Nombre).
		Str("saldo_inicial", m.SaldoInicial.String()).
		Str("creado_por", m.CreadoPor).
		Msg("maestro created")
	return m, nil
}

func (s *LedgerService) GetMaestro(ctx context.Context, caller domain.Caller, id string) (*domain.Maestro, error) {
	if err := authenticated(caller); err != nil {
		return nil, err
	}
	return s.store.GetMaestro(ctx, id)
}

func (s *LedgerService) ListMaestros(ctx context.Context, caller domain.Caller) ([]domain.Maestro, error) {
	if err := authenticated(caller); err != nil {
		return nil, err
	}
	return s.store.ListMaestros(ctx)
}

// ── Movements ─────────────────────────────────────────────────────────────────

// CreateMovement records a movement on behalf of caller. When an idempotency
// key is supplied it is claimed before anything is written: a key that
// already names a movement replays it, and a key still held by an unfinished
// request yields ErrRequestInProgress.
func (s *LedgerService) CreateMovement(ctx context.Context, caller domain.Caller, input ports.CreateMovementInput) (*ports.MovementResult, error) {
	if err := authenticated(caller); err != nil {
		metrics.MovementsRejectedTotal.WithLabelValues("forbidden").Inc()
		return nil, err
	}

	claimed, replay, err := s.claim(ctx, input.IdempotencyKey)
	if err != nil || replay != nil {
		return replay, err
	}

	mv, maestro, err := s.store.InsertMovement(ctx, input.MaestroID, input.Tipo, input.Cantidad, caller.Name)
	if err != nil {
		if claimed {
			s.release(ctx, input.IdempotencyKey)
		}
		metrics.MovementsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		if !errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Str("maestro_id", input.MaestroID).Msg("failed to record movement")
		}
		return nil, err
	}

	if claimed {
		if err := s.idem.Complete(ctx, input.IdempotencyKey, mv.ID); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	metrics.MovementsRecordedTotal.WithLabelValues(string(mv.Tipo)).Inc()
	s.log.Info().
		Str("movement_id", mv.ID).
		Str("maestro_id", mv.MaestroID).
		Str("tipo", string(mv.Tipo)).
		Str("cantidad", mv.Cantidad.String()).
		Str("saldo", maestro.Saldo.String()).
		Str("responsable", mv.Responsable).
		Msg("movement recorded")

	if s.dispatcher != nil {
		s.dispatcher.Enqueue(domain.MovementRecorded{
			MovementID:  mv.ID,
			MaestroID:   mv.MaestroID,
			Tipo:        mv.Tipo,
			Cantidad:    mv.Cantidad,
			Saldo:       maestro.Saldo,
			Responsable: mv.Responsable,
			Fecha:       mv.Fecha,
		})
	}

	return &ports.MovementResult{Movement: *mv, Saldo: maestro.Saldo}, nil
}

// claim reserves key for this request. It reports claimed=true when the
// caller must Complete or release the key, or a replay when the key already
// names a movement. An unreachable idempotency store degrades to processing
// without a key.
func (s *LedgerService) claim(ctx context.Context, key string) (bool, *ports.MovementResult, error) {
	if key == "" || s.idem == nil {
		return false, nil, nil
	}

	id, claimed, err := s.idem.Claim(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency claim failed, processing anyway")
		return false, nil, nil
	}
	if claimed {
		metrics.IdempotencyTotal.WithLabelValues("miss").Inc()
		return true, nil, nil
	}
	if id == "" {
		metrics.IdempotencyTotal.WithLabelValues("in_progress").Inc()
		return false, nil, domain.ErrRequestInProgress
	}

	mv, err := s.store.GetMovement(ctx, id)
	if err != nil {
		return false, nil, fmt.Errorf("idempotent replay %s: %w", id, err)
	}

	metrics.IdempotencyTotal.WithLabelValues("hit").Inc()
	s.log.Info().Str("idempotency_key", key).Str("movement_id", mv.ID).Msg("idempotent replay")
	return false, &ports.MovementResult{Movement: *mv, Replayed: true}, nil
}

// release frees a claim after a failed insert, even when ctx is cancelled.
func (s *LedgerService) release(ctx context.Context, key string) {
	if err := s.idem.Release(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "maestro_not_found"
	default:
		return "store_error"
	}
}

func (s *LedgerService) ListMovements(ctx context.Context, caller domain.Caller, maestroID string) ([]domain.Movement, error) {
	if err := authenticated(caller); err != nil {
		return nil, err
	}
	return s.store.ListMovements(ctx, maestroID)
}

// ── Balances ──────────────────────────────────────────────────────────────────

// RecomputeBalance derives the balance from the maestro's history and
// compares it with the stored saldo. A mismatch is reported, not repaired.
func (s *LedgerService) RecomputeBalance(ctx context.Context, caller domain.Caller, maestroID string) (*ports.BalanceCheck, error) {
	if err := authenticated(caller); err != nil {
		return nil, err
	}

	maestro, history, err := s.store.GetLedger(ctx, maestroID)
	if err != nil {
		return nil, err
	}

	recomputed := maestro.SaldoInicial.Add(domain.SumSigned(history))
	check := &ports.BalanceCheck{
		MaestroID:    maestro.ID,
		Saldo:        maestro.Saldo,
		SaldoInicial: maestro.SaldoInicial,
		Recomputed:   recomputed,
		Movements:    len(history),
		Consistent:   recomputed.Equal(maestro.Saldo),
	}

	if check.Consistent {
		metrics.BalanceChecksTotal.WithLabelValues("consistent").Inc()
	} else {
		metrics.BalanceChecksTotal.WithLabelValues("drift").Inc()
		s.log.Error().
			Str("maestro_id", maestro.ID).
			Str("saldo", maestro.Saldo.String()).
			Str("recomputed", recomputed.String()).
			Msg("balance drift detected")
	}
	return check, nil
}

// BalanceHistory projects the running balance of a maestro, starting from
// its opening balance.
func (s *LedgerService) BalanceHistory(ctx context.Context, caller domain.Caller, maestroID string) ([]domain.BalancePoint, error) {
	if err := authenticated(caller); err != nil {
		return nil, err
	}

	maestro, history, err := s.store.GetLedger(ctx, maestroID)
	if err != nil {
		return nil, err
	}
	return domain.ProjectBalance(history, maestro.SaldoInicial), nil
}

// ── Users ─────────────────────────────────────────────────────────────────────

func (s *LedgerService) ListUsers(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// UpdateUserRole changes a user's role. The role is parsed strictly after
// the caller has been authorized.
func (s *LedgerService) UpdateUserRole(ctx context.Context, caller domain.Caller, userID, role string) (*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		s.log.Warn().Str("caller", caller.ID).Str("user_id", userID).Msg("role update denied")
		return nil, err
	}

	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}

	u, err := s.store.UpdateUserRole(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Str("by", caller.ID).Msg("user role updated")
	return u, nil
}

var _ ports.LedgerService = (*LedgerService)(nil)
