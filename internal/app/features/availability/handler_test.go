package availability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/gametable/internal/app/conflict"
	"github.com/dalemusser/gametable/internal/app/scheduling"
	availabilitystore "github.com/dalemusser/gametable/internal/app/store/availability"
	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/dalemusser/gametable/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type testEnv struct {
	h            *Handler
	availability *availabilitystore.Store
	scheduler    *scheduling.Service
	fixtures     *testutil.Fixtures
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	avail := availabilitystore.New(db)
	sessions := sessionstore.New(db)
	groups := groupstore.New(db)
	svc := scheduling.New(avail, sessions, groups, logger)
	resolver := conflict.New(avail, sessions, groups)

	return &testEnv{
		h:            NewHandler(avail, groups, svc, resolver, logger),
		availability: avail,
		scheduler:    svc,
		fixtures:     testutil.NewFixtures(t, db),
	}
}

func asUser(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
}

func postJSON(t *testing.T, target string, body any, user testutil.TestUser) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	return testutil.WithUser(r, user)
}

func TestSetStatus_StoresRecordAndReportsCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := env.fixtures.CreateOrganizer(ctx, "Dana Organizer", "dana@example.com")
	alice := env.fixtures.CreateMember(ctx, "Alice Player", "alice@example.com")
	group := env.fixtures.CreateGroup(ctx, "Friday Group", organizer.ID,
		[]primitive.ObjectID{alice.ID}, "Friday")

	date := testutil.MustDate(t, "2024-06-14")
	if _, err := env.scheduler.CreateSession(ctx, group.ID, date, "19:00", "Den", ""); err != nil {
		t.Fatalf("create session: %v", err)
	}

	rec := httptest.NewRecorder()
	env.h.SetStatus(rec, postJSON(t, "/availability", map[string]string{
		"date":   "2024-06-14",
		"status": string(models.StatusAvailable),
	}, asUser(alice)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var resp setStatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Record.Status != models.StatusAvailable || resp.Record.Date != "2024-06-14" {
		t.Fatalf("record = %+v", resp.Record)
	}
	if len(resp.ConfirmedSessionIDs) != 1 {
		t.Fatalf("confirmed sessions = %v, want the Friday session", resp.ConfirmedSessionIDs)
	}
	if len(resp.UnconfirmedSessionIDs) != 0 {
		t.Fatalf("unconfirmed sessions = %v, want none", resp.UnconfirmedSessionIDs)
	}
}

func TestSetStatus_Invalid(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := env.fixtures.CreateMember(ctx, "Alice Player", "alice@example.com")

	cases := []struct {
		name string
		body map[string]string
	}{
		{"unknown status", map[string]string{"date": "2024-06-14", "status": "Probably"}},
		{"impossible date", map[string]string{"date": "2024-02-30", "status": string(models.StatusAvailable)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.h.SetStatus(rec, postJSON(t, "/availability", tc.body, asUser(alice)))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422; body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestList_OwnRecordsInRange(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := env.fixtures.CreateMember(ctx, "Alice Player", "alice@example.com")
	bob := env.fixtures.CreateMember(ctx, "Bob Player", "bob@example.com")

	for _, d := range []string{"2024-06-10", "2024-06-14", "2024-06-30"} {
		if _, err := env.availability.SetStatus(ctx, alice.ID, testutil.MustDate(t, d), models.StatusTentative); err != nil {
			t.Fatalf("seed availability: %v", err)
		}
	}
	if _, err := env.availability.SetStatus(ctx, bob.ID, testutil.MustDate(t, "2024-06-14"), models.StatusAvailable); err != nil {
		t.Fatalf("seed availability: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet,
		"/availability?start=2024-06-09&end=2024-06-15", asUser(alice))
	rec := httptest.NewRecorder()
	env.h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Records []recordJSON `json:"records"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Records) != 2 {
		t.Fatalf("records = %d, want the caller's two in-range records", len(resp.Records))
	}
	for _, r := range resp.Records {
		if r.UserID != alice.ID.Hex() {
			t.Fatalf("record for %s leaked into the caller's calendar", r.UserID)
		}
	}
}

func TestList_BadRange(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := env.fixtures.CreateMember(ctx, "Alice Player", "alice@example.com")
	req := testutil.NewAuthenticatedRequest(http.MethodGet,
		"/availability?start=yesterday&end=2024-06-15", asUser(alice))
	rec := httptest.NewRecorder()
	env.h.List(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestReset_DeletesAllOwnRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := env.fixtures.CreateMember(ctx, "Alice Player", "alice@example.com")
	for _, d := range []string{"2024-06-10", "2024-06-14"} {
		if _, err := env.availability.SetStatus(ctx, alice.ID, testutil.MustDate(t, d), models.StatusUnavailable); err != nil {
			t.Fatalf("seed availability: %v", err)
		}
	}

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/availability", asUser(alice))
	rec := httptest.NewRecorder()
	env.h.Reset(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["deleted"] != 2 {
		t.Fatalf("deleted = %d, want 2", resp["deleted"])
	}
}

func TestGroupCalendar_ParticipantsOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := env.fixtures.CreateOrganizer(ctx, "Dana Organizer", "dana@example.com")
	alice := env.fixtures.CreateMember(ctx, "Alice Player", "alice@example.com")
	outsider := env.fixtures.CreateMember(ctx, "Oscar Outsider", "oscar@example.com")
	group := env.fixtures.CreateGroup(ctx, "Friday Group", organizer.ID,
		[]primitive.ObjectID{alice.ID}, "Friday")

	target := "/availability/group/" + group.ID.Hex() + "?start=2024-06-10&end=2024-06-16"

	req := testutil.NewAuthenticatedRequest(http.MethodGet, target, asUser(outsider))
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	env.h.GroupCalendar(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider: status = %d, want 403", rec.Code)
	}

	req = testutil.NewAuthenticatedRequest(http.MethodGet, target, asUser(alice))
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec = httptest.NewRecorder()
	env.h.GroupCalendar(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("member: status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
}

func TestGroupCalendar_BlockedByOtherGroupSession(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := env.fixtures.CreateOrganizer(ctx, "Dana Organizer", "dana@example.com")
	rival := env.fixtures.CreateOrganizer(ctx, "Rita Rival", "rita@example.com")
	alice := env.fixtures.CreateMember(ctx, "Alice Player", "alice@example.com")

	group := env.fixtures.CreateGroup(ctx, "Friday Group", organizer.ID,
		[]primitive.ObjectID{alice.ID}, "Friday")
	rivalGroup := env.fixtures.CreateGroup(ctx, "Rival Group", rival.ID,
		[]primitive.ObjectID{alice.ID}, "Friday")

	date := testutil.MustDate(t, "2024-06-14")
	booked := env.fixtures.CreateSession(ctx, rivalGroup.ID, date,
		[]primitive.ObjectID{alice.ID})

	target := "/availability/group/" + group.ID.Hex() + "?start=2024-06-14&end=2024-06-14"
	req := testutil.NewAuthenticatedRequest(http.MethodGet, target, asUser(organizer))
	req = testutil.WithChiURLParam(req, "id", group.ID.Hex())
	rec := httptest.NewRecorder()
	env.h.GroupCalendar(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Entries []effectiveJSON `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	var found bool
	for _, e := range resp.Entries {
		if e.UserID == alice.ID.Hex() && e.Date == "2024-06-14" {
			found = true
			if e.Status != models.StatusUnavailable {
				t.Fatalf("status = %q, want %q", e.Status, models.StatusUnavailable)
			}
			if e.BlockingSessionID != booked.ID.Hex() {
				t.Fatalf("blocking_session_id = %q, want %q", e.BlockingSessionID, booked.ID.Hex())
			}
		}
	}
	if !found {
		t.Fatal("no entry for the booked member on the session date")
	}
}
