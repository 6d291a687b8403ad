// internal/app/system/ical/ical.go
package ical

// Builds the external-calendar representation of a session as an ICS
// event. Pure construction: callers attach the output to invite mails and
// store the returned ref on the session row. No network I/O happens here.

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/google/uuid"
)

// defaultSessionLength is used for DTEND; the engine only tracks a start
// time, not a duration.
const defaultSessionLength = 4 * time.Hour

// EventInput carries everything needed to render one session event.
type EventInput struct {
	// Ref is the stable event UID. Leave empty on first build; reuse the
	// stored ref on updates and cancellations so calendars match events up.
	Ref       string
	Session   models.Session
	Group     models.Group
	Organizer models.User
	Attendees []models.User
	Cancelled bool
}

// BuildSessionEvent renders the ICS document and returns the event ref
// alongside it.
func BuildSessionEvent(in EventInput) (ref, body string, err error) {
	ref = in.Ref
	if ref == "" {
		ref = uuid.NewString()
	}

	start, err := startInstant(in.Session)
	if err != nil {
		return "", "", err
	}

	cal := ics.NewCalendar()
	cal.SetProductId("-//gametable//scheduler//EN")
	if in.Cancelled {
		cal.SetMethod(ics.MethodCancel)
	} else {
		cal.SetMethod(ics.MethodRequest)
	}

	ev := cal.AddEvent(ref)
	now := time.Now().UTC()
	ev.SetDtStampTime(now)
	ev.SetCreatedTime(in.Session.CreatedAt)
	ev.SetModifiedAt(in.Session.UpdatedAt)
	ev.SetStartAt(start)
	ev.SetEndAt(start.Add(defaultSessionLength))
	ev.SetSummary(eventSummary(in))
	if in.Session.Location != "" {
		ev.SetLocation(in.Session.Location)
	}
	if in.Cancelled {
		ev.SetStatus(ics.ObjectStatusCancelled)
	} else {
		ev.SetStatus(ics.ObjectStatusConfirmed)
	}
	if in.Organizer.Email != "" {
		ev.SetOrganizer("mailto:"+in.Organizer.Email, ics.WithCN(in.Organizer.FullName))
	}
	for _, a := range in.Attendees {
		if a.Email == "" {
			continue
		}
		ev.AddAttendee(a.Email,
			ics.CalendarUserTypeIndividual,
			ics.ParticipationStatusAccepted,
			ics.ParticipationRoleReqParticipant,
			ics.WithCN(a.FullName))
	}

	return ref, cal.Serialize(), nil
}

func eventSummary(in EventInput) string {
	if in.Session.Name != "" {
		return fmt.Sprintf("%s: %s", in.Group.Name, in.Session.Name)
	}
	return fmt.Sprintf("%s session", in.Group.Name)
}

// startInstant combines the session's civil date with its wall-clock start
// in the reference zone.
func startInstant(s models.Session) (time.Time, error) {
	tod, err := time.Parse("15:04", s.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad session time %q: %w", s.Time, err)
	}
	day := civildate.Truncate(s.Date)
	return time.Date(day.Year(), day.Month(), day.Day(),
		tod.Hour(), tod.Minute(), 0, 0, civildate.Zone()), nil
}
