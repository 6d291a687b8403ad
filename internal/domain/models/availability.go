// internal/domain/models/availability.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is a user's self-reported availability for a civil date.
//
// The wire strings match the original calendar data ("Don't know", "Sure",
// "Maybe", "Not available") so existing documents decode unchanged.
type Status string

const (
	StatusUnknown     Status = "Don't know"
	StatusAvailable   Status = "Sure"
	StatusTentative   Status = "Maybe"
	StatusUnavailable Status = "Not available"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusAvailable, StatusTentative, StatusUnavailable:
		return true
	}
	return false
}

// Commits reports whether the status counts as a commitment to attend.
// Available and Tentative both confirm a member for a session on the date.
func (s Status) Commits() bool {
	return s == StatusAvailable || s == StatusTentative
}

// AvailabilityRecord is one user's stated availability for one civil date.
// At most one record exists per (user_id, date); a missing record means
// StatusUnknown. Date is the canonical midnight instant for the civil date.
type AvailabilityRecord struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Date   time.Time          `bson:"date" json:"date"`
	Status Status             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
