package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/biblioteca/maestros-api/internal/core/domain"
	"github.com/biblioteca/maestros-api/internal/core/ports"
)

const (
	collectionMaestros  = "maestros"
	collectionMovements = "movements"
	collectionUsers     = "users"
)

var bySeq = bson.D{{Key: "seq", Value: 1}}

// Store implements ports.EntityStore on MongoDB. Movement writes use
// multi-document transactions, so the deployment must be a replica set.
type Store struct {
	client    *mongo.Client
	maestros  *mongo.Collection
	movements *mongo.Collection
	users     *mongo.Collection

	now   func() time.Time
	newID func() string
}

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:    client,
		maestros:  db.Collection(collectionMaestros),
		movements: db.Collection(collectionMovements),
		users:     db.Collection(collectionUsers),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes the queries rely on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.maestros.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bySeq}); err != nil {
		return fmt.Errorf("maestros index: %w", err)
	}
	if _, err := s.movements.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "maestro_id", Value: 1}, {Key: "seq", Value: 1}},
	}); err != nil {
		return fmt.Errorf("movements index: %w", err)
	}
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	return nil
}

// --- Maestros ---

func (s *Store) GetMaestro(ctx context.Context, id string) (*domain.Maestro, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return findMaestro(ctx, s.maestros, id)
}

func findMaestro(ctx context.Context, col *mongo.Collection, id string) (*domain.Maestro, error) {
	var doc maestroDoc
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMaestroNotFound
		}
		return nil, fmt.Errorf("find maestro: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) ListMaestros(ctx context.Context) ([]domain.Maestro, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := s.maestros.Find(ctx, bson.M{}, options.Find().SetSort(bySeq))
	if err != nil {
		return nil, fmt.Errorf("list maestros: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []maestroDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode maestros: %w", err)
	}

	out := make([]domain.Maestro, 0, len(docs))
	for _, d := range docs {
		m, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

func (s *Store) InsertMaestro(ctx context.Context, nombre string, saldoInicial decimal.Decimal, creadoPor string) (*domain.Maestro, error) {
	m, err := domain.NewMaestro(s.newID(), nombre, saldoInicial, creadoPor, s.now())
	if err != nil {
		return nil, err
	}
	doc, err := newMaestroDoc(m)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.maestros.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert maestro: %w", err)
	}
	return &m, nil
}

// --- Movements ---

func (s *Store) ListMovements(ctx context.Context, maestroID string) ([]domain.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return findMovements(ctx, s.movements, maestroID)
}

func findMovements(ctx context.Context, col *mongo.Collection, maestroID string) ([]domain.Movement, error) {
	filter := bson.M{}
	if maestroID != "" {
		filter["maestro_id"] = maestroID
	}

	cursor, err := col.Find(ctx, filter, options.Find().SetSort(bySeq))
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []movementDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode movements: %w", err)
	}

	out := make([]domain.Movement, 0, len(docs))
	for _, d := range docs {
		mv, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *mv)
	}
	return out, nil
}

func (s *Store) GetMovement(ctx context.Context, id string) (*domain.Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc movementDoc
	if err := s.movements.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, fmt.Errorf("find movement: %w", err)
	}
	return doc.toDomain()
}

type insertResult struct {
	movement *domain.Movement
	maestro  *domain.Maestro
}

// InsertMovement increments the maestro saldo and inserts the movement in
// one transaction. The $inc write conflicts with any concurrent movement on
// the same maestro, and WithTransaction retries the loser.
func (s *Store) InsertMovement(
	ctx context.Context,
	maestroID string,
	tipo domain.MovementType,
	cantidad decimal.Decimal,
	responsable string,
) (*domain.Movement, *domain.Maestro, error) {
	if err := domain.ValidateMovement(tipo, cantidad); err != nil {
		return nil, nil, err
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().SetWriteConcern(writeconcern.Majority())
	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// The movement id and timestamp are regenerated on retry.
		delta, err := toDecimal128(domain.Movement{Tipo: tipo, Cantidad: cantidad}.Signed())
		if err != nil {
			return nil, err
		}

		var doc maestroDoc
		err = s.maestros.FindOneAndUpdate(sc,
			bson.M{"_id": maestroID},
			bson.M{"$inc": bson.M{"saldo": delta}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMaestroNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("update saldo: %w", err)
		}

		maestro, err := doc.toDomain()
		if err != nil {
			return nil, err
		}

		mv, err := domain.NewMovement(s.newID(), *maestro, tipo, cantidad, responsable, s.now())
		if err != nil {
			return nil, err
		}
		mvDoc, err := newMovementDoc(mv)
		if err != nil {
			return nil, err
		}
		if _, err := s.movements.InsertOne(sc, mvDoc); err != nil {
			return nil, fmt.Errorf("insert movement: %w", err)
		}
		return insertResult{movement: &mv, maestro: maestro}, nil
	}, txnOpts)
	if err != nil {
		return nil, nil, err
	}

	r := res.(insertResult)
	return r.movement, r.maestro, nil
}

// GetLedger reads the maestro and its history in a snapshot transaction.
func (s *Store) GetLedger(ctx context.Context, maestroID string) (*domain.Maestro, []domain.Movement, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().SetReadConcern(readconcern.Snapshot())
	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		maestro, err := findMaestro(sc, s.maestros, maestroID)
		if err != nil {
			return nil, err
		}
		history, err := findMovements(sc, s.movements, maestroID)
		if err != nil {
			return nil, err
		}
		return ledger{maestro: maestro, history: history}, nil
	}, txnOpts)
	if err != nil {
		return nil, nil, err
	}

	l := res.(ledger)
	return l.maestro, l.history, nil
}

type ledger struct {
	maestro *domain.Maestro
	history []domain.Movement
}

var _ ports.EntityStore = (*Store)(nil)
