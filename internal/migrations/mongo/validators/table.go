package validators

import "go.mongodb.org/mongo-driver/bson"

var TableValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"number", "capacity", "zone", "is_active"},
		"additionalProperties": true,

		"properties": bson.M{
			"number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 10,
			},
			"capacity": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  30,
			},
			"zone": bson.M{
				"bsonType": "string",
				"enum":     []string{"indoor", "outdoor", "terrace", "bar", "private"},
			},
			"is_active": bson.M{
				"bsonType": "bool",
			},
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"available", "reserved", "occupied", "maintenance", "temporarily_closed"},
			},
			"estimated_free_time": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BusinessHoursValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"day_of_week", "is_open", "slot_duration_minutes", "buffer_minutes", "max_party_size"},
		"additionalProperties": true,

		"properties": bson.M{
			"day_of_week": bson.M{
				"bsonType": integer,
				"minimum":  0,
				"maximum":  6,
			},
			"is_open": bson.M{
				"bsonType": "bool",
			},
			"open_time":        timeOfDay,
			"close_time":       timeOfDay,
			"lunch_open_time":  timeOfDay,
			"lunch_close_time": timeOfDay,
			"slot_duration_minutes": bson.M{
				"bsonType": integer,
				"minimum":  5,
				"maximum":  240,
			},
			"buffer_minutes": bson.M{
				"bsonType": integer,
				"minimum":  0,
				"maximum":  720,
			},
			"max_party_size": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  100,
			},
		},
	},
}

var timeOfDay = bson.M{
	"bsonType": "string",
	"pattern":  `^([01][0-9]|2[0-4]):[0-5][0-9]$`,
}
