// internal/app/store/sessions/sessionstore.go
package sessionstore

// Scheduled game sessions. One session per (group_id, date); the compound
// unique index backing that invariant is ensured at startup (system/indexes)
// and duplicate inserts surface as ErrSessionExists.

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrSessionExists   = errors.New("a session already exists for this group and date")
	ErrSessionNotFound = errors.New("session not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

// Insert creates the session row. The date is re-anchored to its canonical
// midnight before writing so the (group_id, date) key is always clean.
func (s *Store) Insert(ctx context.Context, session *models.Session) error {
	now := time.Now().UTC()
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	session.Date = civildate.Truncate(session.Date)
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.ConfirmedMemberIDs == nil {
		session.ConfirmedMemberIDs = []primitive.ObjectID{}
	}

	_, err := s.c.InsertOne(ctx, session)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrSessionExists
		}
		return err
	}
	return nil
}

// GetByID fetches one session; ErrSessionNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Session, error) {
	var session models.Session
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return models.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// FindByGroupAndDate returns the group's session on the date, if any.
func (s *Store) FindByGroupAndDate(ctx context.Context, groupID primitive.ObjectID, date time.Time) (models.Session, error) {
	var session models.Session
	err := s.c.FindOne(ctx, bson.M{
		"group_id": groupID,
		"date":     civildate.Truncate(date),
	}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return models.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Update rewrites the mutable fields of an existing session and bumps
// updated_at. The duplicate-key case (moving onto a date that already has a
// session for the group) maps to ErrSessionExists.
func (s *Store) Update(ctx context.Context, session *models.Session) error {
	session.Date = civildate.Truncate(session.Date)
	session.UpdatedAt = time.Now().UTC()

	res, err := s.c.UpdateByID(ctx, session.ID, bson.M{"$set": bson.M{
		"date":                 session.Date,
		"time":                 session.Time,
		"location":             session.Location,
		"name":                 session.Name,
		"confirmed_member_ids": session.ConfirmedMemberIDs,
		"updated_at":           session.UpdatedAt,
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrSessionExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SetExternalEventRef records the external calendar event backing the session.
func (s *Store) SetExternalEventRef(ctx context.Context, id primitive.ObjectID, ref string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"external_event_ref": ref,
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// AddConfirmed adds userID to the confirmed set ($addToSet, idempotent).
func (s *Store) AddConfirmed(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"confirmed_member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RemoveConfirmed removes userID from the confirmed set; no-op when absent.
func (s *Store) RemoveConfirmed(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"confirmed_member_ids": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session row. Deleting an already-deleted session is not
// an error; cancellation must be safe to re-run.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListForGroups returns all sessions of the given groups, ascending by date.
func (s *Store) ListForGroups(ctx context.Context, groupIDs []primitive.ObjectID) ([]models.Session, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"group_id": bson.M{"$in": groupIDs}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []models.Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListOnDate returns every session on the civil date across all groups.
// The conflict resolver scans system-wide, not per group.
func (s *Store) ListOnDate(ctx context.Context, date time.Time) ([]models.Session, error) {
	cur, err := s.c.Find(ctx, bson.M{"date": civildate.Truncate(date)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []models.Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListOnDateForGroups returns the date's sessions restricted to the given
// groups (availability-to-confirmation sync path).
func (s *Store) ListOnDateForGroups(ctx context.Context, groupIDs []primitive.ObjectID, date time.Time) ([]models.Session, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{
		"group_id": bson.M{"$in": groupIDs},
		"date":     civildate.Truncate(date),
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []models.Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListUpcoming returns sessions with from <= date <= to across all groups,
// ascending by date. Feed for the reminder worker.
func (s *Store) ListUpcoming(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"date": bson.M{"$gte": civildate.Truncate(from), "$lte": civildate.Truncate(to)},
	}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sessions []models.Session
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
