package validation

import (
	"testing"

	"tablebook/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Opens string `validate:"required,time_of_day"`
	Zone  string `validate:"required,table_zone"`
	Day   string `validate:"required,civil_date"`
	Size  int    `validate:"min=1,max=20"`
}

func TestStruct(t *testing.T) {
	v := New(logger.Nop())

	require.NoError(t, Struct(v, &sample{Opens: "18:00", Zone: "terrace", Day: "2025-03-20", Size: 4}))

	err := Struct(v, &sample{Opens: "25:00", Zone: "garden", Day: "20-03-2025", Size: 0})
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 4)

	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Message
	}
	assert.Equal(t, "Opens must be in HH:MM 24-hour format", byField["Opens"])
	assert.Contains(t, byField["Zone"], "indoor outdoor terrace bar private")
	assert.Contains(t, byField["Day"], "YYYY-MM-DD")
	assert.Equal(t, "Size must be at least 1", byField["Size"])
	assert.Contains(t, err.Error(), "4 error(s)")
}

func TestValidationErrors_Empty(t *testing.T) {
	assert.Equal(t, "", ValidationErrors{}.Error())
}
