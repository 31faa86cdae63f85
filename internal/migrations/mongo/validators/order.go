package validators

import "go.mongodb.org/mongo-driver/bson"

var MenuItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "price", "stock"},
		"additionalProperties": true,

		"properties": bson.M{
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 120,
			},
			"price": bson.M{
				"bsonType": bson.A{"double", "int", "long", "decimal"},
				"minimum":  0,
			},
			"stock": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},
		},
	},
}

var OrderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"order_number", "table_id", "restaurant_id", "order_source", "status", "total_amount", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"order_number": bson.M{
				"bsonType": "string",
				"pattern":  `^ORD-[0-9]{8}-[0-9A-F]{8}$`,
			},
			"table_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"order_source": bson.M{
				"bsonType": "string",
				"enum":     []string{"waiter", "table_qr", "counter", "online"},
			},
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"PENDING", "CONFIRMED", "PREPARING", "READY", "SERVED", "CANCELLED"},
			},
			"total_amount": bson.M{
				"bsonType": bson.A{"double", "int", "long", "decimal"},
				"minimum":  0,
			},
		},
	},
}

var OrderItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"order_id", "menu_item_id", "quantity", "unit_price", "total_price"},
		"additionalProperties": true,

		"properties": bson.M{
			"order_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"menu_item_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"quantity": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},
			"unit_price": bson.M{
				"bsonType": bson.A{"double", "int", "long", "decimal"},
				"minimum":  0,
			},
		},
	},
}
