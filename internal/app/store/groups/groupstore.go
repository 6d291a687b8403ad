// internal/app/store/groups/groupstore.go
package groupstore

// Read-model over the groups collection. Group documents are owned by the
// membership-management side of the application; the scheduling engine reads
// organizer, member set and eligible dates here and never writes them.
// Membership is always read live at call time — a session created a moment
// ago already reflects whoever was a member right then.

import (
	"context"
	"errors"

	"github.com/dalemusser/gametable/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrGroupNotFound = errors.New("group not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// GetByID fetches one group; ErrGroupNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var group models.Group
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err == mongo.ErrNoDocuments {
		return models.Group{}, ErrGroupNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// ListForUser returns every group the user participates in, as organizer or
// member, sorted by folded name.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	filter := bson.M{"$or": []bson.M{
		{"organizer_id": userID},
		{"member_ids": userID},
	}}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// IDsForUser returns just the IDs of the user's groups (conflict scans and
// session listings only need the keys).
func (s *Store) IDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	groups, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids, nil
}

// MemberGroupIDsForUser returns IDs of groups where the user is a member
// (organizer-only groups excluded). The availability-to-confirmation sync
// only ever confirms members, never organizers.
func (s *Store) MemberGroupIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"member_ids": userID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}
