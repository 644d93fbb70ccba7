package validators

import "go.mongodb.org/mongo-driver/bson"

var seatLockSchema = bson.M{
	"bsonType": "object",
	"required": []string{"seat_number", "locked_at", "expires_at", "passenger_email"},
	"properties": bson.M{
		"seat_number":     bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
		"locked_at":       bson.M{"bsonType": "date"},
		"expires_at":      bson.M{"bsonType": "date"},
		"passenger_name":  bson.M{"bsonType": "string"},
		"passenger_email": bson.M{"bsonType": "string"},
	},
}

var BusValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"bus_name",
			"source",
			"destination",
			"date",
			"departure_time",
			"arrival_time",
			"price",
			"total_seats",
			"seats_booked",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"bus_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"source": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"destination": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"departure_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},

			"arrival_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},

			"price": bson.M{
				"bsonType":         []string{"double", "int", "long", "decimal"},
				"exclusiveMinimum": 0,
			},

			"total_seats": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  100,
			},

			"seats_booked": bson.M{
				"bsonType":    "array",
				"uniqueItems": true,
				"items": bson.M{
					"bsonType": []string{"int", "long"},
					"minimum":  1,
				},
			},

			"seat_locks": bson.M{
				"bsonType": "array",
				"items":    seatLockSchema,
			},

			"confirmations": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"transaction_id", "seats"},
				},
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
		},
	},
}
