package repository

import (
	"context"
	"fmt"

	ordererrors "tablebook/internal/orders/errors"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	MenuItemCollectionName = "MenuItems"
)

type mongoMenuItemRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type MenuItemRepository interface {
	// FindByIDs returns the items that exist, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.MenuItem, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
}

func NewMongoMenuItemRepository(cfg *config.Config) MenuItemRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMenuItemRepository{
		cfg:        cfg,
		collection: db.Collection(MenuItemCollectionName),
	}
}

func (r *mongoMenuItemRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*model.MenuItem, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ordererrors.ErrInvalidID, id)
		}
		objectIDs = append(objectIDs, oid)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var found []*model.MenuItem
	if err = cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode menu items: %w", err)
	}

	items := make(map[string]*model.MenuItem, len(found))
	for _, item := range found {
		items[item.ID] = item
	}
	return items, nil
}

// DecrementStock removes quantity only while at least that much is in stock.
// ErrInsufficientStock reports a decrement that matched nothing.
func (r *mongoMenuItemRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ordererrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "stock": bson.M{"$gte": quantity}},
		bson.M{"$inc": bson.M{"stock": -quantity}},
	)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ordererrors.ErrInsufficientStock, id)
	}
	return nil
}
