package model

import "time"

// Lease is a named, expiring ownership record. Uniqueness comes from _id, so
// a duplicate key on acquire means another owner still holds it.
type Lease struct {
	ID         string    `bson:"_id" json:"id"`
	Owner      string    `bson:"owner" json:"owner"`
	AcquiredAt time.Time `bson:"acquired_at" json:"acquired_at"`
	ExpiresAt  time.Time `bson:"expires_at" json:"expires_at"`
}
