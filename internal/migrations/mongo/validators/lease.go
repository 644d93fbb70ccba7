package validators

import "go.mongodb.org/mongo-driver/bson"

var LeaseValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":         bson.M{"bsonType": "string"},
			"owner":       bson.M{"bsonType": "string"},
			"acquired_at": bson.M{"bsonType": "date"},
			"expires_at":  bson.M{"bsonType": "date"},
		},
	},
}
