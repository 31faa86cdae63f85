package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	tableerrors "tablebook/internal/tables/errors"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Tables"
)

type TableFilter struct {
	Zone       string
	ActiveOnly bool
}

type mongoTableRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type TableRepository interface {
	FindAll(ctx context.Context, filter TableFilter) ([]*model.Table, error)
	FindByID(ctx context.Context, id string) (*model.Table, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Table, error)
	UpdateStatus(ctx context.Context, id string, update model.TableStatusUpdate) error
	Delete(ctx context.Context, id string) error
}

func NewMongoTableRepository(cfg *config.Config) TableRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTableRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTableRepository) FindAll(ctx context.Context, filter TableFilter) ([]*model.Table, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Zone != "" {
		query["zone"] = filter.Zone
	}
	if filter.ActiveOnly {
		query["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "zone", Value: 1}, {Key: "number", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer cursor.Close(ctx)

	var tables []*model.Table
	if err = cursor.All(ctx, &tables); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	return tables, nil
}

func (r *mongoTableRepository) FindByID(ctx context.Context, id string) (*model.Table, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tableerrors.ErrInvalidID, id)
	}

	var table model.Table
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&table)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", tableerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find table: %w", err)
	}
	return &table, nil
}

// FindByIDs returns the tables in the order of ids. Any id that is malformed
// or missing fails the whole lookup.
func (r *mongoTableRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Table, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", tableerrors.ErrInvalidID, id)
		}
		objectIDs = append(objectIDs, oid)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*model.Table
	if err = cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}

	byID := make(map[string]*model.Table, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	out := make([]*model.Table, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", tableerrors.ErrNotFound, id)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *mongoTableRepository) UpdateStatus(ctx context.Context, id string, update model.TableStatusUpdate) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", tableerrors.ErrInvalidID, id)
	}

	set := bson.M{
		"is_active":  update.IsActive,
		"status":     update.Status,
		"notes":      update.Notes,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	doc := bson.M{"$set": set}
	if update.EstimatedFreeTime != nil {
		set["estimated_free_time"] = *update.EstimatedFreeTime
	} else {
		doc["$unset"] = bson.M{"estimated_free_time": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update table status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", tableerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoTableRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", tableerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", tableerrors.ErrNotFound, id)
	}
	return nil
}
