package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// MustDate normalizes a YYYY-MM-DD string or fails the test.
func MustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := civildate.Normalize(s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateOrganizer creates a test user with organizer role.
func (f *Fixtures) CreateOrganizer(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "organizer")
}

// CreateMember creates a test user with member role.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "member")
}

// CreateGroup creates a test group. recurringWeekdays uses weekday names
// ("Monday".."Sunday"); pass none for a group with no recurring days.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, organizerID primitive.ObjectID, memberIDs []primitive.ObjectID, recurringWeekdays ...string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:                primitive.NewObjectID(),
		Name:              name,
		NameCI:            text.Fold(name),
		Description:       "Test group",
		OrganizerID:       organizerID,
		MemberIDs:         memberIDs,
		RecurringWeekdays: recurringWeekdays,
		Status:            "active",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// AddOneOffDate appends an explicit one-off date to a group document.
// Fixtures write groups directly; the engine itself never mutates them.
func (f *Fixtures) AddOneOffDate(ctx context.Context, groupID primitive.ObjectID, date time.Time) {
	f.t.Helper()

	_, err := f.db.Collection("groups").UpdateByID(ctx, groupID, bson.M{
		"$push": bson.M{"one_off_dates": date},
	})
	if err != nil {
		f.t.Fatalf("failed to add one-off date: %v", err)
	}
}

// CreateSession inserts a session document directly, bypassing the
// scheduling service. Useful for conflict-resolver and store tests.
func (f *Fixtures) CreateSession(ctx context.Context, groupID primitive.ObjectID, date time.Time, confirmed []primitive.ObjectID) models.Session {
	f.t.Helper()

	now := time.Now().UTC()
	session := models.Session{
		ID:                 primitive.NewObjectID(),
		GroupID:            groupID,
		Date:               date,
		Time:               "19:00",
		Location:           "The Dragon's Den",
		ConfirmedMemberIDs: confirmed,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := f.db.Collection("sessions").InsertOne(ctx, session); err != nil {
		f.t.Fatalf("failed to create test session: %v", err)
	}
	return session
}
