// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents one recurring game group: an organizer, its members, and
// the dates on which sessions may be scheduled.
//
// NOTE:
//   - Groups are owned by the membership-management side of the application.
//     The scheduling engine only ever reads these documents; it never writes
//     them. Member sets are always read live, never cached.
//   - RecurringWeekdays holds weekday names ("Monday".."Sunday") on which the
//     group normally plays. OneOffDates holds canonical midnight instants for
//     extra dates outside the recurring pattern.
type Group struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Name        string               `bson:"name" json:"name"`
	NameCI      string               `bson:"name_ci" json:"name_ci"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	OrganizerID primitive.ObjectID   `bson:"organizer_id" json:"organizer_id"`
	MemberIDs   []primitive.ObjectID `bson:"member_ids" json:"member_ids"`

	RecurringWeekdays []string    `bson:"recurring_weekdays" json:"recurring_weekdays"`
	OneOffDates       []time.Time `bson:"one_off_dates,omitempty" json:"one_off_dates,omitempty"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ParticipantIDs returns the member set plus the organizer. The organizer is
// tracked separately from MemberIDs and is never part of a session's
// confirmed set, but shares the same availability cascade.
func (g *Group) ParticipantIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(g.MemberIDs)+1)
	ids = append(ids, g.MemberIDs...)
	ids = append(ids, g.OrganizerID)
	return ids
}

// IsParticipant reports whether userID is the organizer or a member.
func (g *Group) IsParticipant(userID primitive.ObjectID) bool {
	return g.OrganizerID == userID || g.HasMember(userID)
}

// HasMember reports whether userID is in the member set (organizer excluded).
func (g *Group) HasMember(userID primitive.ObjectID) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
