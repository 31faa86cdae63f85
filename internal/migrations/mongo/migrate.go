package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	businesshoursrepo "tablebook/internal/businesshours/repository"
	"tablebook/internal/migrations/mongo/validators"
	orderrepo "tablebook/internal/orders/repository"
	reservationrepo "tablebook/internal/reservations/repository"
	tablerepo "tablebook/internal/tables/repository"
	tokenrepo "tablebook/internal/tokens/repository"
	"tablebook/pkg/logger"
)

var (
	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}, {Key: "time", Value: 1}}},
		{Keys: bson.D{{Key: "table_ids", Value: 1}, {Key: "time", Value: 1}}},
		{
			Keys:    bson.D{{Key: "table_id", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	ReservationLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	ReservationTokensIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "reservation_id", Value: 1}}},
	}

	TablesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "zone", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	BusinessHoursIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "day_of_week", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	MenuItemsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	OrdersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "table_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	OrderItemsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() map[string]collectionDef {
	return map[string]collectionDef{
		reservationrepo.CollectionName: {
			Indexes:   ReservationsIndexes,
			Validator: validators.ReservationValidator,
		},
		reservationrepo.LockCollectionName: {
			Indexes:   ReservationLocksIndexes,
			Validator: validators.ReservationLockValidator,
		},
		tokenrepo.CollectionName: {
			Indexes:   ReservationTokensIndexes,
			Validator: validators.ReservationTokenValidator,
		},
		tablerepo.CollectionName: {
			Indexes:   TablesIndexes,
			Validator: validators.TableValidator,
		},
		businesshoursrepo.CollectionName: {
			Indexes:   BusinessHoursIndexes,
			Validator: validators.BusinessHoursValidator,
		},
		orderrepo.MenuItemCollectionName: {
			Indexes:   MenuItemsIndexes,
			Validator: validators.MenuItemValidator,
		},
		orderrepo.OrderCollectionName: {
			Indexes:   OrdersIndexes,
			Validator: validators.OrderValidator,
		},
		orderrepo.OrderItemCollectionName: {
			Indexes:   OrderItemsIndexes,
			Validator: validators.OrderItemValidator,
		},
	}
}

// RunMigration creates every collection with its schema validator and
// indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for name, def := range collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
