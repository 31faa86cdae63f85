package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	businesshoursrepo "tablebook/internal/businesshours/repository"
	orderrepo "tablebook/internal/orders/repository"
	tablerepo "tablebook/internal/tables/repository"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
	"tablebook/pkg/sanitizer"
)

// SeedData is the JSON document accepted by the seed command.
type SeedData struct {
	Tables        []model.Table         `json:"tables"`
	MenuItems     []model.MenuItem      `json:"menuItems"`
	BusinessHours []model.BusinessHours `json:"businessHours"`
}

type SeedReport struct {
	Tables        int
	MenuItems     int
	BusinessHours int
}

func DecodeSeed(r io.Reader) (*SeedData, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var data SeedData
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	for i := range data.Tables {
		data.Tables[i].Number = sanitizer.NormalizeTableNumber(data.Tables[i].Number)
		if data.Tables[i].Number == "" || data.Tables[i].Capacity <= 0 {
			return nil, fmt.Errorf("invalid seed file: table %d needs a number and a positive capacity", i)
		}
	}
	for i, hours := range data.BusinessHours {
		if hours.DayOfWeek < 0 || hours.DayOfWeek > 6 {
			return nil, fmt.Errorf("invalid seed file: business hours %d has day_of_week %d", i, hours.DayOfWeek)
		}
	}
	return &data, nil
}

// Seed upserts tables by (zone, number), menu items by name and business
// hours by weekday, so reseeding updates rows instead of duplicating them.
func Seed(ctx context.Context, db *mongo.Database, data *SeedData, log *logger.Logger) (SeedReport, error) {
	var report SeedReport
	now := time.Now().UTC().Truncate(time.Millisecond)
	upsert := options.Update().SetUpsert(true)

	tables := db.Collection(tablerepo.CollectionName)
	for _, t := range data.Tables {
		t.ID = ""
		t.UpdatedAt = now
		if _, err := tables.UpdateOne(ctx,
			bson.M{"zone": t.Zone, "number": t.Number},
			bson.M{"$set": t},
			upsert,
		); err != nil {
			return report, fmt.Errorf("failed to seed table %s: %w", t.Number, err)
		}
		report.Tables++
	}

	menu := db.Collection(orderrepo.MenuItemCollectionName)
	for _, item := range data.MenuItems {
		item.ID = ""
		if _, err := menu.UpdateOne(ctx,
			bson.M{"name": item.Name},
			bson.M{"$set": item},
			upsert,
		); err != nil {
			return report, fmt.Errorf("failed to seed menu item %s: %w", item.Name, err)
		}
		report.MenuItems++
	}

	hours := db.Collection(businesshoursrepo.CollectionName)
	for _, h := range data.BusinessHours {
		h.ID = ""
		h.UpdatedAt = now
		if _, err := hours.UpdateOne(ctx,
			bson.M{"day_of_week": h.DayOfWeek},
			bson.M{"$set": h},
			upsert,
		); err != nil {
			return report, fmt.Errorf("failed to seed business hours for day %d: %w", h.DayOfWeek, err)
		}
		report.BusinessHours++
	}

	log.Info("Seed data applied",
		"tables", report.Tables,
		"menu_items", report.MenuItems,
		"business_hours", report.BusinessHours,
	)
	return report, nil
}
