package repository

import (
	"context"
	"errors"
	"fmt"

	tokenerrors "tablebook/internal/tokens/errors"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "ReservationTokens"
)

type mongoTokenRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type TokenRepository interface {
	Create(ctx context.Context, token *model.ReservationToken) error
	FindByToken(ctx context.Context, token string) (*model.ReservationToken, error)
	DeleteByReservation(ctx context.Context, reservationID string) (int64, error)
}

func NewMongoTokenRepository(cfg *config.Config) TokenRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTokenRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTokenRepository) Create(ctx context.Context, token *model.ReservationToken) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	token.ID = ""
	result, err := r.collection.InsertOne(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to create reservation token: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		token.ID = oid.Hex()
	}
	return nil
}

// FindByToken returns the active token with the given value. Inactive tokens
// are reported as not found.
func (r *mongoTokenRepository) FindByToken(ctx context.Context, token string) (*model.ReservationToken, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var found model.ReservationToken
	err := r.collection.FindOne(ctx, bson.M{"token": token, "is_active": true}).Decode(&found)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tokenerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation token: %w", err)
	}
	return &found, nil
}

func (r *mongoTokenRepository) DeleteByReservation(ctx context.Context, reservationID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"reservation_id": reservationID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete reservation tokens: %w", err)
	}
	return result.DeletedCount, nil
}
