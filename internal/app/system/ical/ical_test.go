package ical_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/app/system/ical"
	"github.com/dalemusser/gametable/internal/domain/models"
)

func testInput(t *testing.T) ical.EventInput {
	t.Helper()
	date, err := civildate.Normalize("2024-06-14")
	if err != nil {
		t.Fatalf("bad date: %v", err)
	}
	return ical.EventInput{
		Session: models.Session{
			Date:     date,
			Time:     "19:00",
			Location: "The Dragon's Den",
		},
		Group:     models.Group{Name: "Friday Table"},
		Organizer: models.User{FullName: "Alena Novak", Email: "alena@example.com"},
		Attendees: []models.User{
			{FullName: "Bedrich Maly", Email: "bedrich@example.com"},
		},
	}
}

func TestBuildSessionEvent(t *testing.T) {
	ref, body, err := ical.BuildSessionEvent(testInput(t))
	if err != nil {
		t.Fatalf("BuildSessionEvent failed: %v", err)
	}
	if ref == "" {
		t.Error("expected a generated ref")
	}

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:REQUEST",
		"UID:" + ref,
		"SUMMARY:Friday Table session",
		"LOCATION:The Dragon's Den",
		"mailto:alena@example.com",
		"bedrich@example.com",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("ICS missing %q:\n%s", want, body)
		}
	}

	// 19:00 Prague in June is 17:00 UTC.
	if !strings.Contains(body, "DTSTART:20240614T170000Z") {
		t.Errorf("ICS has wrong DTSTART:\n%s", body)
	}
}

func TestBuildSessionEvent_ReusesRef(t *testing.T) {
	in := testInput(t)
	in.Ref = "existing-ref"

	ref, body, err := ical.BuildSessionEvent(in)
	if err != nil {
		t.Fatalf("BuildSessionEvent failed: %v", err)
	}
	if ref != "existing-ref" {
		t.Errorf("ref: got %q, want the provided one", ref)
	}
	if !strings.Contains(body, "UID:existing-ref") {
		t.Error("ICS does not carry the provided UID")
	}
}

func TestBuildSessionEvent_Cancelled(t *testing.T) {
	in := testInput(t)
	in.Ref = "existing-ref"
	in.Cancelled = true

	_, body, err := ical.BuildSessionEvent(in)
	if err != nil {
		t.Fatalf("BuildSessionEvent failed: %v", err)
	}
	if !strings.Contains(body, "METHOD:CANCEL") {
		t.Error("cancelled event should use METHOD:CANCEL")
	}
	if !strings.Contains(body, "STATUS:CANCELLED") {
		t.Error("cancelled event should carry STATUS:CANCELLED")
	}
}

func TestBuildSessionEvent_BadTime(t *testing.T) {
	in := testInput(t)
	in.Session.Time = "late evening"
	if _, _, err := ical.BuildSessionEvent(in); err == nil {
		t.Error("expected an error for an unparseable time")
	}
}
