package repository

import (
	"context"
	"fmt"
	"time"

	ordererrors "tablebook/internal/orders/errors"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	OrderItemCollectionName = "OrderItems"
)

type mongoOrderItemRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type OrderItemRepository interface {
	Create(ctx context.Context, item *model.OrderItem) error
	FindByOrder(ctx context.Context, orderID string) ([]model.OrderItem, error)
}

func NewMongoOrderItemRepository(cfg *config.Config) OrderItemRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoOrderItemRepository{
		cfg:        cfg,
		collection: db.Collection(OrderItemCollectionName),
	}
}

func (r *mongoOrderItemRepository) Create(ctx context.Context, item *model.OrderItem) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	item.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	item.ID = ""

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		item.ID = oid.Hex()
	}
	return nil
}

func (r *mongoOrderItemRepository) FindByOrder(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := primitive.ObjectIDFromHex(orderID); err != nil {
		return nil, fmt.Errorf("%w: %s", ordererrors.ErrInvalidID, orderID)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []model.OrderItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	return items, nil
}
