package handler

import (
	"time"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toMaestroResponse(m domain.Maestro) maestroResponse {
	return maestroResponse{
		ID:           m.ID,
		Nombre:       m.Nombre,
		Saldo:        m.Saldo.InexactFloat64(),
		SaldoInicial: m.SaldoInicial.InexactFloat64(),
		CreadoPor:    m.CreadoPor,
		CreatedAt:    formatTime(m.CreatedAt),
	}
}

func toMaestroList(list []domain.Maestro) []maestroResponse {
	out := make([]maestroResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMaestroResponse(m))
	}
	return out
}

func toMovementResponse(mv domain.Movement) movementResponse {
	return movementResponse{
		ID:            mv.ID,
		MaestroID:     mv.MaestroID,
		MaestroNombre: mv.MaestroNombre,
		Tipo:          string(mv.Tipo),
		Cantidad:      mv.Cantidad.InexactFloat64(),
		Responsable:   mv.Responsable,
		Fecha:         formatTime(mv.Fecha),
	}
}

func toMovementList(list []domain.Movement) []movementResponse {
	out := make([]movementResponse, 0, len(list))
	for _, mv := range list {
		out = append(out, toMovementResponse(mv))
	}
	return out
}

func toCreateMovementResponse(r *ports.MovementResult) createMovementResponse {
	resp := createMovementResponse{movementResponse: toMovementResponse(r.Movement)}
	if !r.Replayed {
		saldo := r.Saldo.InexactFloat64()
		resp.Saldo = &saldo
	}
	return resp
}

func toBalanceResponse(b *ports.BalanceCheck) balanceResponse {
	return balanceResponse{
		MaestroID:    b.MaestroID,
		Saldo:        b.Saldo.InexactFloat64(),
		SaldoInicial: b.SaldoInicial.InexactFloat64(),
		Recomputed:   b.Recomputed.InexactFloat64(),
		Movements:    b.Movements,
		Consistent:   b.Consistent,
	}
}

func toBalanceHistory(points []domain.BalancePoint) []balancePointResponse {
	out := make([]balancePointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, balancePointResponse{Fecha: formatTime(p.Fecha), Saldo: p.Saldo.InexactFloat64()})
	}
	return out
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toUserList(list []domain.User) []userResponse {
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUserResponse(u))
	}
	return out
}
