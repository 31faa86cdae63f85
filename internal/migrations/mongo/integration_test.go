//go:build integration

package mongo

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	orderrepo "tablebook/internal/orders/repository"
	tablerepo "tablebook/internal/tables/repository"
	"tablebook/pkg/logger"
)

const connectionTimeout = 10 * time.Second

// testDatabase connects to TEST_MONGO_URI and hands out a throwaway database
// that is dropped when the test ends.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database(fmt.Sprintf("tablebook_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("warning: failed to drop %s: %v", db.Name(), err)
		}
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestRunMigration_Idempotent(t *testing.T) {
	db := testDatabase(t)
	log := logger.Nop()
	ctx := context.Background()

	require.NoError(t, RunMigration(ctx, db, log))
	require.NoError(t, RunMigration(ctx, db, log), "a second run only refreshes validators and indexes")

	names, err := db.ListCollectionNames(ctx, bson.D{})
	require.NoError(t, err)
	for name := range collections() {
		assert.Contains(t, names, name)
	}
}

func TestSeed_UpsertsAndRespectsIndexes(t *testing.T) {
	db := testDatabase(t)
	log := logger.Nop()
	ctx := context.Background()
	require.NoError(t, RunMigration(ctx, db, log))

	data, err := DecodeSeed(strings.NewReader(`{
		"tables": [
			{"number": "t1", "capacity": 2, "zone": "indoor", "isActive": true},
			{"number": "T2", "capacity": 4, "zone": "indoor", "isActive": true}
		],
		"menuItems": [
			{"name": "Margherita", "price": 8.5, "stock": 20}
		],
		"businessHours": [
			{"dayOfWeek": 5, "isOpen": true, "openTime": "19:00", "closeTime": "23:00", "advanceBookingMinutes": 30, "slotDurationMinutes": 15, "bufferMinutes": 150, "maxPartySize": 8}
		]
	}`))
	require.NoError(t, err)

	report, err := Seed(ctx, db, data, log)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{Tables: 2, MenuItems: 1, BusinessHours: 1}, report)

	_, err = Seed(ctx, db, data, log)
	require.NoError(t, err)

	tables, err := db.Collection(tablerepo.CollectionName).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), tables, "reseeding updates rows in place")

	menu, err := db.Collection(orderrepo.MenuItemCollectionName).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), menu)

	_, err = db.Collection(tablerepo.CollectionName).InsertOne(ctx, bson.M{
		"number": "T1", "capacity": 2, "zone": "indoor", "is_active": true,
	})
	assert.True(t, mongo.IsDuplicateKeyError(err), "zone and number stay unique")
}
