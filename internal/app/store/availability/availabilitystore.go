// internal/app/store/availability/availabilitystore.go
package availabilitystore

// One availability record per (user, civil date), shared by every group the
// user belongs to. The compound unique index on (user_id, date) is ensured at
// startup (system/indexes); every write here goes through a single upsert or
// a conditional delete so the cascade in the scheduling service stays
// idempotent and safe to re-run.

import (
	"context"
	"time"

	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("availability")}
}

// SetStatus upserts the record for (userID, date). Calling it twice with the
// same arguments leaves exactly one record with the same final state;
// concurrent callers race last-writer-wins on the status field while the
// unique index prevents duplicate rows.
func (s *Store) SetStatus(ctx context.Context, userID primitive.ObjectID, date time.Time, status models.Status) (models.AvailabilityRecord, error) {
	date = civildate.Truncate(date)
	now := time.Now().UTC()

	filter := bson.M{"user_id": userID, "date": date}
	update := bson.M{
		"$set":         bson.M{"status": status, "updated_at": now},
		"$setOnInsert": bson.M{"user_id": userID, "date": date, "created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec models.AvailabilityRecord
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if err != nil && wafflemongo.IsDup(err) {
		// Two upserts for the same missing key can collide on the unique
		// index; the retry hits the now-existing document.
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	}
	if err != nil {
		return models.AvailabilityRecord{}, err
	}
	return rec, nil
}

// GetStatus returns the stored status for (userID, date), or StatusUnknown
// when no record exists.
func (s *Store) GetStatus(ctx context.Context, userID primitive.ObjectID, date time.Time) (models.Status, error) {
	date = civildate.Truncate(date)

	var rec models.AvailabilityRecord
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "date": date}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return models.StatusUnknown, nil
	}
	if err != nil {
		return models.StatusUnknown, err
	}
	return rec.Status, nil
}

// ListForUser returns the user's records with from <= date <= to, ascending
// by date.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]models.AvailabilityRecord, error) {
	filter := bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": civildate.Truncate(from), "$lte": civildate.Truncate(to)},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []models.AvailabilityRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ListForUsers returns records for all of userIDs in the date range, ascending
// by date then user. Used for a group's shared calendar view.
func (s *Store) ListForUsers(ctx context.Context, userIDs []primitive.ObjectID, from, to time.Time) ([]models.AvailabilityRecord, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"user_id": bson.M{"$in": userIDs},
		"date":    bson.M{"$gte": civildate.Truncate(from), "$lte": civildate.Truncate(to)},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "user_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []models.AvailabilityRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteIfStatus removes the record for (userID, date) only when its current
// status equals expected; otherwise it is a no-op. Reports whether a record
// was removed. This is the conditional rollback used by session cancellation:
// a status the user changed after the forced write is never touched.
func (s *Store) DeleteIfStatus(ctx context.Context, userID primitive.ObjectID, date time.Time, expected models.Status) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{
		"user_id": userID,
		"date":    civildate.Truncate(date),
		"status":  expected,
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DeleteAllForUser removes every availability record for the user (the
// "reset my calendar" action). Returns the number of documents deleted.
func (s *Store) DeleteAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
