package repository

import (
	"testing"
	"time"

	"tablebook/pkg/model"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNormalize_LegacyAssignment(t *testing.T) {
	doc := reservationDocument{
		Reservation:   model.Reservation{ID: "r1", TableIDs: []string{"t1"}},
		LegacyTableID: "t9",
	}

	assert.Equal(t, []string{"t1", "t9"}, doc.normalize(true).TableIDs)
	assert.Equal(t, []string{"t1"}, doc.normalize(false).TableIDs)
	assert.Equal(t, []string{"t1"}, doc.TableIDs, "normalizing does not touch the stored document")

	legacyOnly := reservationDocument{LegacyTableID: "t9"}
	assert.Equal(t, []string{"t9"}, legacyOnly.normalize(true).TableIDs)
	assert.Equal(t, []string{}, legacyOnly.normalize(false).TableIDs)

	duplicated := reservationDocument{
		Reservation:   model.Reservation{TableIDs: []string{"t9"}},
		LegacyTableID: "t9",
	}
	assert.Equal(t, []string{"t9"}, duplicated.normalize(true).TableIDs)
}

func TestBuildFilter(t *testing.T) {
	from := time.Date(2025, 3, 20, 17, 30, 0, 0, time.UTC)
	to := from.Add(5 * time.Hour)

	got := buildFilter(ReservationFilter{
		From:                    &from,
		To:                      &to,
		Statuses:                model.BlockingStatuses,
		TableIDs:                []string{"t1"},
		IncludeLegacyAssignment: true,
	})

	assert.Equal(t, bson.M{"$gt": from, "$lt": to}, got["time"])
	assert.Equal(t, bson.M{"$in": model.BlockingStatuses}, got["status"])
	assert.Len(t, got["$or"], 2)
	assert.NotContains(t, got, "table_ids")

	plain := buildFilter(ReservationFilter{Date: "2025-03-20", TableIDs: []string{"t1"}})
	assert.Equal(t, "2025-03-20", plain["date"])
	assert.Equal(t, bson.M{"$in": []string{"t1"}}, plain["table_ids"])
	assert.NotContains(t, plain, "$or")

	assert.Empty(t, buildFilter(ReservationFilter{}))
}
