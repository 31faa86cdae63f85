package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	hourserrors "tablebook/internal/businesshours/errors"
	"tablebook/pkg/config"
	mongotx "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "BusinessHours"
)

type mongoBusinessHoursRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type BusinessHoursRepository interface {
	FindByDay(ctx context.Context, day time.Weekday) (*model.BusinessHours, error)
	FindAll(ctx context.Context) ([]*model.BusinessHours, error)
	Upsert(ctx context.Context, hours *model.BusinessHours) error
}

func NewMongoBusinessHoursRepository(cfg *config.Config) BusinessHoursRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBusinessHoursRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBusinessHoursRepository) FindByDay(ctx context.Context, day time.Weekday) (*model.BusinessHours, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var hours model.BusinessHours
	err := r.collection.FindOne(ctx, bson.M{"day_of_week": int(day)}).Decode(&hours)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", hourserrors.ErrNotFound, day)
		}
		return nil, fmt.Errorf("failed to find business hours: %w", err)
	}
	return &hours, nil
}

func (r *mongoBusinessHoursRepository) FindAll(ctx context.Context) ([]*model.BusinessHours, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "day_of_week", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query business hours: %w", err)
	}
	defer cursor.Close(ctx)

	var all []*model.BusinessHours
	if err = cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("failed to decode business hours: %w", err)
	}
	return all, nil
}

// Upsert writes the hours of hours.DayOfWeek, creating the document on first
// use.
func (r *mongoBusinessHoursRepository) Upsert(ctx context.Context, hours *model.BusinessHours) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	hours.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"is_open":                 hours.IsOpen,
			"open_time":               hours.OpenTime,
			"close_time":              hours.CloseTime,
			"lunch_open_time":         hours.LunchOpenTime,
			"lunch_close_time":        hours.LunchCloseTime,
			"advance_booking_minutes": hours.AdvanceBookingMinutes,
			"slot_duration_minutes":   hours.SlotDurationMinutes,
			"buffer_minutes":          hours.BufferMinutes,
			"max_party_size":          hours.MaxPartySize,
			"updated_at":              hours.UpdatedAt,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"day_of_week": hours.DayOfWeek}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert business hours: %w", err)
	}
	return nil
}
