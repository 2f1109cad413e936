package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// BalancePoint is the running balance right after one movement.
type BalancePoint struct {
	Fecha time.Time
	Saldo decimal.Decimal
}

// ProjectBalance derives the running-balance series of a movement set that
// belongs to a single maestro. Movements are ordered by Fecha; movements
// with equal Fecha keep their input order. One point is emitted per
// movement, so len(result) == len(movements). The input is not modified.
//
// When movements is a maestro's full history and start its SaldoInicial,
// the last point equals the maestro's Saldo.
func ProjectBalance(movements []Movement, start decimal.Decimal) []BalancePoint {
	ordered := slices.Clone(movements)
	slices.SortStableFunc(ordered, func(a, b Movement) int {
		return a.Fecha.Compare(b.Fecha)
	})

	points := make([]BalancePoint, 0, len(ordered))
	running := start
	for _, m := range ordered {
		running = running.Add(m.Signed())
		points = append(points, BalancePoint{Fecha: m.Fecha, Saldo: running})
	}
	return points
}
