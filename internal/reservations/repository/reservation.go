package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	reservationerrors "tablebook/internal/reservations/errors"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reservations"

	legacyTableField = "table_id"
)

// ReservationFilter selects reservations. Zero fields do not filter.
type ReservationFilter struct {
	Date     string
	From     *time.Time
	To       *time.Time
	Statuses []model.ReservationStatus
	TableIDs []string
	// IncludeLegacyAssignment folds the deprecated single table_id field into
	// TableIDs. Only conflict detection reads ask for it.
	IncludeLegacyAssignment bool
}

// reservationDocument is the stored shape, which may still carry the
// deprecated single table assignment.
type reservationDocument struct {
	model.Reservation `bson:",inline"`
	LegacyTableID     string `bson:"table_id,omitempty"`
}

type mongoReservationRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ReservationRepository interface {
	Create(ctx context.Context, r *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Find(ctx context.Context, filter ReservationFilter) ([]*model.Reservation, error)
	UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	res.CreatedAt = now
	res.UpdatedAt = now
	res.ID = ""

	result, err := r.collection.InsertOne(ctx, res)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		res.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationerrors.ErrInvalidID, id)
	}

	var doc reservationDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", reservationerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return doc.normalize(false), nil
}

func (r *mongoReservationRepository) Find(ctx context.Context, filter ReservationFilter) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}})
	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reservationDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	out := make([]*model.Reservation, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].normalize(filter.IncludeLegacyAssignment))
	}
	return out, nil
}

// UpdateStatus moves a reservation from one status to another. The write only
// applies while the stored status still equals from. A non-empty note is
// appended to the special requests.
func (r *mongoReservationRepository) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", reservationerrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if note != "" {
		set["special_requests"] = bson.M{"$trim": bson.M{"input": bson.M{"$concat": bson.A{
			bson.M{"$ifNull": bson.A{"$special_requests", ""}},
			"\n",
			bson.M{"$literal": note},
		}}}}
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": from},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", reservationerrors.ErrStatusChanged, id)
	}
	return nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func buildFilter(f ReservationFilter) bson.M {
	filter := bson.M{}
	if f.Date != "" {
		filter["date"] = f.Date
	}

	window := bson.M{}
	if f.From != nil {
		window["$gt"] = *f.From
	}
	if f.To != nil {
		window["$lt"] = *f.To
	}
	if len(window) > 0 {
		filter["time"] = window
	}

	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}

	if len(f.TableIDs) > 0 {
		if f.IncludeLegacyAssignment {
			filter["$or"] = bson.A{
				bson.M{"table_ids": bson.M{"$in": f.TableIDs}},
				bson.M{legacyTableField: bson.M{"$in": f.TableIDs}},
			}
		} else {
			filter["table_ids"] = bson.M{"$in": f.TableIDs}
		}
	}
	return filter
}

// normalize returns the reservation with table ids as the only assignment.
// The legacy field is folded in when foldLegacy is set and dropped otherwise.
func (d *reservationDocument) normalize(foldLegacy bool) *model.Reservation {
	res := d.Reservation
	if res.TableIDs == nil {
		res.TableIDs = []string{}
	}
	if foldLegacy && d.LegacyTableID != "" && !slices.Contains(res.TableIDs, d.LegacyTableID) {
		res.TableIDs = append(res.TableIDs, d.LegacyTableID)
	}
	return &res
}
