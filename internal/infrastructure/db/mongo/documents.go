package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/biblioteca/maestros-api/internal/core/domain"
)

// Every document carries Seq, an ObjectID assigned at insert time. Sorting
// on it yields insertion order.
type maestroDoc struct {
	ID           string               `bson:"_id"`
	Seq          primitive.ObjectID   `bson:"seq"`
	Nombre       string               `bson:"nombre"`
	Saldo        primitive.Decimal128 `bson:"saldo"`
	SaldoInicial primitive.Decimal128 `bson:"saldo_inicial"`
	CreadoPor    string               `bson:"creado_por"`
	CreatedAt    time.Time            `bson:"created_at"`
}

type movementDoc struct {
	ID            string               `bson:"_id"`
	Seq           primitive.ObjectID   `bson:"seq"`
	MaestroID     string               `bson:"maestro_id"`
	MaestroNombre string               `bson:"maestro_nombre"`
	Tipo          string               `bson:"tipo"`
	Cantidad      primitive.Decimal128 `bson:"cantidad"`
	Responsable   string               `bson:"responsable"`
	Fecha         time.Time            `bson:"fecha"`
}

type userDoc struct {
	ID           string             `bson:"_id"`
	Seq          primitive.ObjectID `bson:"seq"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	Role         string             `bson:"role"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode amount %s: %w", v, err)
	}
	return d, nil
}

func newMaestroDoc(m domain.Maestro) (maestroDoc, error) {
	saldo, err := toDecimal128(m.Saldo)
	if err != nil {
		return maestroDoc{}, err
	}
	inicial, err := toDecimal128(m.SaldoInicial)
	if err != nil {
		return maestroDoc{}, err
	}
	return maestroDoc{
		ID:           m.ID,
		Seq:          primitive.NewObjectID(),
		Nombre:       m.Nombre,
		Saldo:        saldo,
		SaldoInicial: inicial,
		CreadoPor:    m.CreadoPor,
		CreatedAt:    m.CreatedAt,
	}, nil
}

func (d maestroDoc) toDomain() (*domain.Maestro, error) {
	saldo, err := fromDecimal128(d.Saldo)
	if err != nil {
		return nil, err
	}
	inicial, err := fromDecimal128(d.SaldoInicial)
	if err != nil {
		return nil, err
	}
	return &domain.Maestro{
		ID:           d.ID,
		Nombre:       d.Nombre,
		Saldo:        saldo,
		SaldoInicial: inicial,
		CreadoPor:    d.CreadoPor,
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

func newMovementDoc(m domain.Movement) (movementDoc, error) {
	cantidad, err := toDecimal128(m.Cantidad)
	if err != nil {
		return movementDoc{}, err
	}
	return movementDoc{
		ID:            m.ID,
		Seq:           primitive.NewObjectID(),
		MaestroID:     m.MaestroID,
		MaestroNombre: m.MaestroNombre,
		Tipo:          string(m.Tipo),
		Cantidad:      cantidad,
		Responsable:   m.Responsable,
		Fecha:         m.Fecha,
	}, nil
}

func (d movementDoc) toDomain() (*domain.Movement, error) {
	cantidad, err := fromDecimal128(d.Cantidad)
	if err != nil {
		return nil, err
	}
	return &domain.Movement{
		ID:            d.ID,
		MaestroID:     d.MaestroID,
		MaestroNombre: d.MaestroNombre,
		Tipo:          domain.MovementType(d.Tipo),
		Cantidad:      cantidad,
		Responsable:   d.Responsable,
		Fecha:         d.Fecha.UTC(),
	}, nil
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		Role:         domain.Role(d.Role),
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}
