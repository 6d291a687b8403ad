// internal/domain/models/session.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is one scheduled game for a group on a civil date.
//
// Date is the canonical instant for the civil date (midnight in the reference
// timezone, see system/civildate). Time is the wall-clock start ("HH:MM") and
// is stored separately so the date field stays a pure calendar key — the
// (group_id, date) pair is unique.
//
// ConfirmedMemberIDs ⊆ the group's member set at confirmation time. The
// organizer is tracked on the group and never appears in this set.
type Session struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	GroupID            primitive.ObjectID   `bson:"group_id" json:"group_id"`
	Date               time.Time            `bson:"date" json:"date"`
	Time               string               `bson:"time" json:"time"`
	Location           string               `bson:"location" json:"location"`
	Name               string               `bson:"name,omitempty" json:"name,omitempty"`
	ConfirmedMemberIDs []primitive.ObjectID `bson:"confirmed_member_ids" json:"confirmed_member_ids"`

	// ExternalEventRef is the identifier of the mirrored event in an external
	// calendar (set by the notification adapter after the engine commits).
	ExternalEventRef string `bson:"external_event_ref,omitempty" json:"external_event_ref,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsConfirmed reports whether userID is in the confirmed set.
func (s *Session) IsConfirmed(userID primitive.ObjectID) bool {
	for _, id := range s.ConfirmedMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
