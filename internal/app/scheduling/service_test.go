package scheduling_test

import (
	"context"
	"testing"

	"github.com/dalemusser/gametable/internal/app/scheduling"
	availabilitystore "github.com/dalemusser/gametable/internal/app/store/availability"
	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/dalemusser/gametable/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type testEnv struct {
	svc          *scheduling.Service
	availability *availabilitystore.Store
	sessions     *sessionstore.Store
	fixtures     *testutil.Fixtures
	db           *mongo.Database
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	availability := availabilitystore.New(db)
	sessions := sessionstore.New(db)
	groups := groupstore.New(db)
	return &testEnv{
		svc:          scheduling.New(availability, sessions, groups, zap.NewNop()),
		availability: availability,
		sessions:     sessions,
		fixtures:     testutil.NewFixtures(t, db),
		db:           db,
	}
}

// seedGroup creates an organizer, n members, and a group playing on Fridays.
func seedGroup(t *testing.T, env *testEnv, ctx context.Context, n int) (models.Group, models.User, []models.User) {
	t.Helper()
	organizer := env.fixtures.CreateOrganizer(ctx, "Organizer", "org@example.com")
	members := make([]models.User, n)
	memberIDs := make([]primitive.ObjectID, n)
	for i := range members {
		members[i] = env.fixtures.CreateMember(ctx,
			string(rune('A'+i)), string(rune('a'+i))+"@example.com")
		memberIDs[i] = members[i].ID
	}
	group := env.fixtures.CreateGroup(ctx, "Friday Table", organizer.ID, memberIDs, "Friday")
	return group, organizer, members
}

func TestCreateSession_ConfirmsAllMembersAndForcesUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, organizer, members := seedGroup(t, env, ctx, 2)
	date := testutil.MustDate(t, "2024-06-14") // a Friday

	result, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "The Dragon's Den", "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	// The entire member set is confirmed; the organizer is not in the set.
	session := result.Session
	if len(session.ConfirmedMemberIDs) != len(members) {
		t.Errorf("confirmed count: got %d, want %d", len(session.ConfirmedMemberIDs), len(members))
	}
	if session.IsConfirmed(organizer.ID) {
		t.Error("organizer must not appear in the confirmed set")
	}

	// Every member and the organizer is forced Unavailable for the date.
	for _, u := range append(members, organizer) {
		status, err := env.availability.GetStatus(ctx, u.ID, date)
		if err != nil {
			t.Fatalf("GetStatus failed: %v", err)
		}
		if status != models.StatusUnavailable {
			t.Errorf("user %s: got status %q, want %q", u.FullName, status, models.StatusUnavailable)
		}
	}
}

func TestCreateSession_OverwritesExistingAvailability(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, _, members := seedGroup(t, env, ctx, 1)
	date := testutil.MustDate(t, "2024-06-14")

	// The member had said Available; scheduling overrides it.
	if _, err := env.availability.SetStatus(ctx, members[0].ID, date, models.StatusAvailable); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	if _, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "X", ""); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	status, _ := env.availability.GetStatus(ctx, members[0].ID, date)
	if status != models.StatusUnavailable {
		t.Errorf("got status %q, want forced %q", status, models.StatusUnavailable)
	}
}

func TestCreateSession_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, _, _ := seedGroup(t, env, ctx, 1)

	// Saturday is not a recurring day and not a one-off.
	if _, err := env.svc.CreateSession(ctx, group.ID, testutil.MustDate(t, "2024-06-15"), "19:00", "X", ""); err != scheduling.ErrDateNotEligible {
		t.Errorf("ineligible date: got %v, want ErrDateNotEligible", err)
	}
	if _, err := env.svc.CreateSession(ctx, group.ID, testutil.MustDate(t, "2024-06-14"), "25:99", "X", ""); err != scheduling.ErrInvalidTime {
		t.Errorf("bad time: got %v, want ErrInvalidTime", err)
	}
	if _, err := env.svc.CreateSession(ctx, primitive.NewObjectID(), testutil.MustDate(t, "2024-06-14"), "19:00", "X", ""); err != scheduling.ErrGroupNotFound {
		t.Errorf("unknown group: got %v, want ErrGroupNotFound", err)
	}

	// Failed validation writes nothing.
	n, _ := env.db.Collection("sessions").EstimatedDocumentCount(ctx)
	if n != 0 {
		t.Errorf("expected no sessions after failed validations, got %d", n)
	}
	n, _ = env.db.Collection("availability").EstimatedDocumentCount(ctx)
	if n != 0 {
		t.Errorf("expected no availability writes after failed validations, got %d", n)
	}
}

func TestCreateSession_DuplicateDate(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, _, _ := seedGroup(t, env, ctx, 1)
	date := testutil.MustDate(t, "2024-06-14")

	if _, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "X", ""); err != nil {
		t.Fatalf("first CreateSession failed: %v", err)
	}
	if _, err := env.svc.CreateSession(ctx, group.ID, date, "20:00", "Y", ""); err != scheduling.ErrSessionExists {
		t.Errorf("second CreateSession: got %v, want ErrSessionExists", err)
	}
}

func TestRescheduleSession_RecomputesConfirmedFromAvailability(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, _, members := seedGroup(t, env, ctx, 3)
	oldDate := testutil.MustDate(t, "2024-06-14")
	newDate := testutil.MustDate(t, "2024-06-21")

	if _, err := env.svc.CreateSession(ctx, group.ID, oldDate, "19:00", "X", ""); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	created, err := env.sessions.FindByGroupAndDate(ctx, group.ID, oldDate)
	if err != nil {
		t.Fatalf("FindByGroupAndDate failed: %v", err)
	}

	// Stated availability on the new date: Sure, Maybe, nothing.
	if _, err := env.availability.SetStatus(ctx, members[0].ID, newDate, models.StatusAvailable); err != nil {
		t.Fatal(err)
	}
	if _, err := env.availability.SetStatus(ctx, members[1].ID, newDate, models.StatusTentative); err != nil {
		t.Fatal(err)
	}

	result, err := env.svc.RescheduleSession(ctx, created.ID, scheduling.Update{Date: &newDate})
	if err != nil {
		t.Fatalf("RescheduleSession failed: %v", err)
	}
	if !result.DateChanged {
		t.Error("DateChanged should be true")
	}

	session := result.Session
	if !session.IsConfirmed(members[0].ID) || !session.IsConfirmed(members[1].ID) {
		t.Error("Available and Tentative members should stay confirmed")
	}
	if session.IsConfirmed(members[2].ID) {
		t.Error("member with no stated availability must drop out of the confirmed set")
	}

	// The old date's forced markers are left in place: moving the game does
	// not mean anyone is free again.
	for _, m := range members {
		status, _ := env.availability.GetStatus(ctx, m.ID, oldDate)
		if status != models.StatusUnavailable {
			t.Errorf("old-date status for %s: got %q, want %q", m.FullName, status, models.StatusUnavailable)
		}
	}
}

func TestRescheduleSession_LocationOnlyKeepsConfirmedSet(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, _, members := seedGroup(t, env, ctx, 2)
	date := testutil.MustDate(t, "2024-06-14")

	if _, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "Old place", ""); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	created, _ := env.sessions.FindByGroupAndDate(ctx, group.ID, date)

	loc := "New place"
	result, err := env.svc.RescheduleSession(ctx, created.ID, scheduling.Update{Location: &loc})
	if err != nil {
		t.Fatalf("RescheduleSession failed: %v", err)
	}
	if result.DateChanged {
		t.Error("DateChanged should be false for a location-only update")
	}
	if result.Session.Location != loc {
		t.Errorf("Location: got %q, want %q", result.Session.Location, loc)
	}
	if len(result.Session.ConfirmedMemberIDs) != len(members) {
		t.Errorf("confirmed set changed on a location-only update: %v", result.Session.ConfirmedMemberIDs)
	}
}

func TestRescheduleSession_IneligibleDate(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, _, _ := seedGroup(t, env, ctx, 1)
	date := testutil.MustDate(t, "2024-06-14")

	if _, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "X", ""); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	created, _ := env.sessions.FindByGroupAndDate(ctx, group.ID, date)

	saturday := testutil.MustDate(t, "2024-06-15")
	if _, err := env.svc.RescheduleSession(ctx, created.ID, scheduling.Update{Date: &saturday}); err != scheduling.ErrDateNotEligible {
		t.Errorf("got %v, want ErrDateNotEligible", err)
	}

	// Nothing changed.
	session, _ := env.sessions.GetByID(ctx, created.ID)
	if !session.Date.UTC().Equal(date.UTC()) {
		t.Errorf("date changed after failed reschedule: %v", session.Date)
	}
}

func TestCancelSession_ConditionalRollback(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, organizer, members := seedGroup(t, env, ctx, 2)
	date := testutil.MustDate(t, "2024-06-14")

	if _, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "X", ""); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	created, _ := env.sessions.FindByGroupAndDate(ctx, group.ID, date)

	// One member has since claimed they are actually available.
	if _, err := env.availability.SetStatus(ctx, members[1].ID, date, models.StatusAvailable); err != nil {
		t.Fatal(err)
	}

	result, err := env.svc.CancelSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("CancelSession failed: %v", err)
	}
	if result.Session.ID != created.ID {
		t.Errorf("result snapshot: got %v", result.Session.ID)
	}

	// Forced markers were rolled back to Unknown; the hand-set status survives.
	for _, u := range []models.User{members[0], organizer} {
		status, _ := env.availability.GetStatus(ctx, u.ID, date)
		if status != models.StatusUnknown {
			t.Errorf("user %s after cancel: got %q, want %q", u.FullName, status, models.StatusUnknown)
		}
	}
	status, _ := env.availability.GetStatus(ctx, members[1].ID, date)
	if status != models.StatusAvailable {
		t.Errorf("hand-set status lost: got %q, want %q", status, models.StatusAvailable)
	}

	// The row is gone; cancelling again reports not-found.
	if _, err := env.sessions.GetByID(ctx, created.ID); err != sessionstore.ErrSessionNotFound {
		t.Errorf("session should be deleted, got %v", err)
	}
	if _, err := env.svc.CancelSession(ctx, created.ID); err != scheduling.ErrSessionNotFound {
		t.Errorf("second cancel: got %v, want ErrSessionNotFound", err)
	}
}

func TestSetUserStatus_SyncsConfirmations(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, _, members := seedGroup(t, env, ctx, 2)
	date := testutil.MustDate(t, "2024-06-14")

	if _, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "X", ""); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	created, _ := env.sessions.FindByGroupAndDate(ctx, group.ID, date)

	// Declaring Not available drops the member from the confirmed set.
	result, err := env.svc.SetUserStatus(ctx, members[0].ID, date, models.StatusUnavailable)
	if err != nil {
		t.Fatalf("SetUserStatus failed: %v", err)
	}
	if len(result.UnconfirmedSessionIDs) != 1 || result.UnconfirmedSessionIDs[0] != created.ID {
		t.Errorf("UnconfirmedSessionIDs: %v", result.UnconfirmedSessionIDs)
	}
	session, _ := env.sessions.GetByID(ctx, created.ID)
	if session.IsConfirmed(members[0].ID) {
		t.Error("member still confirmed after declaring Not available")
	}

	// Declaring Maybe puts them back.
	result, err = env.svc.SetUserStatus(ctx, members[0].ID, date, models.StatusTentative)
	if err != nil {
		t.Fatalf("SetUserStatus failed: %v", err)
	}
	if len(result.ConfirmedSessionIDs) != 1 {
		t.Errorf("ConfirmedSessionIDs: %v", result.ConfirmedSessionIDs)
	}
	session, _ = env.sessions.GetByID(ctx, created.ID)
	if !session.IsConfirmed(members[0].ID) {
		t.Error("member not confirmed after declaring Maybe")
	}
}

func TestSetUserStatus_OrganizerNeverConfirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, organizer, _ := seedGroup(t, env, ctx, 1)
	date := testutil.MustDate(t, "2024-06-14")

	if _, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "X", ""); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	created, _ := env.sessions.FindByGroupAndDate(ctx, group.ID, date)

	result, err := env.svc.SetUserStatus(ctx, organizer.ID, date, models.StatusAvailable)
	if err != nil {
		t.Fatalf("SetUserStatus failed: %v", err)
	}
	if len(result.ConfirmedSessionIDs) != 0 {
		t.Errorf("organizer must not be synced into confirmed sets: %v", result.ConfirmedSessionIDs)
	}
	session, _ := env.sessions.GetByID(ctx, created.ID)
	if session.IsConfirmed(organizer.ID) {
		t.Error("organizer appeared in the confirmed set")
	}
}

func TestSetUserStatus_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := env.svc.SetUserStatus(ctx, primitive.NewObjectID(), testutil.MustDate(t, "2024-06-14"), models.Status("Probably")); err != scheduling.ErrInvalidStatus {
		t.Errorf("got %v, want ErrInvalidStatus", err)
	}
}

func TestConfirmAttendance(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, organizer, members := seedGroup(t, env, ctx, 1)
	date := testutil.MustDate(t, "2024-06-14")

	if _, err := env.svc.CreateSession(ctx, group.ID, date, "19:00", "X", ""); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	created, _ := env.sessions.FindByGroupAndDate(ctx, group.ID, date)

	// Idempotent for a member.
	for i := 0; i < 2; i++ {
		session, err := env.svc.ConfirmAttendance(ctx, created.ID, members[0].ID)
		if err != nil {
			t.Fatalf("ConfirmAttendance failed: %v", err)
		}
		if !session.IsConfirmed(members[0].ID) {
			t.Error("member not confirmed")
		}
		if len(session.ConfirmedMemberIDs) != 1 {
			t.Errorf("confirmed set size: got %d, want 1", len(session.ConfirmedMemberIDs))
		}
	}

	// The organizer and outsiders are rejected.
	if _, err := env.svc.ConfirmAttendance(ctx, created.ID, organizer.ID); err != scheduling.ErrNotMember {
		t.Errorf("organizer confirm: got %v, want ErrNotMember", err)
	}
	if _, err := env.svc.ConfirmAttendance(ctx, created.ID, primitive.NewObjectID()); err != scheduling.ErrNotMember {
		t.Errorf("outsider confirm: got %v, want ErrNotMember", err)
	}
}
