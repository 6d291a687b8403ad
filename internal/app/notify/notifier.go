// internal/app/notify/notifier.go

// Package notify turns scheduling results into outbound side effects:
// ICS calendar events and lifecycle emails. Everything here runs after the
// engine has committed and is strictly best-effort; failures are logged and
// never propagate back into the API response.
package notify

import (
	"context"

	"github.com/dalemusser/gametable/internal/app/scheduling"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	userstore "github.com/dalemusser/gametable/internal/app/store/users"
	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/app/system/ical"
	"github.com/dalemusser/gametable/internal/app/system/mailer"
	"github.com/dalemusser/gametable/internal/domain/models"
	"go.uber.org/zap"
)

type Notifier struct {
	users    *userstore.Store
	sessions *sessionstore.Store
	mail     *mailer.Mailer
	log      *zap.Logger

	siteName string
	baseURL  string
}

func New(users *userstore.Store, sessions *sessionstore.Store, mail *mailer.Mailer, siteName, baseURL string, logger *zap.Logger) *Notifier {
	return &Notifier{
		users:    users,
		sessions: sessions,
		mail:     mail,
		log:      logger,
		siteName: siteName,
		baseURL:  baseURL,
	}
}

// SessionCreated builds the calendar event, stores its ref on the session,
// and mails invites to every participant.
func (n *Notifier) SessionCreated(ctx context.Context, result scheduling.CreateResult) {
	n.send(ctx, result.Session, result.Group, false, mailer.BuildInviteEmail)
}

// SessionUpdated refreshes the calendar event and mails the new details.
func (n *Notifier) SessionUpdated(ctx context.Context, result scheduling.RescheduleResult) {
	n.send(ctx, result.Session, result.Group, false, mailer.BuildUpdateEmail)
}

// SessionCancelled sends the METHOD:CANCEL event and cancellation mails.
// The session row is already gone; the snapshot from the result is used.
func (n *Notifier) SessionCancelled(ctx context.Context, result scheduling.CancelResult) {
	if result.Group.ID.IsZero() {
		// Group vanished before cancellation; nobody left to notify.
		return
	}
	n.send(ctx, result.Session, result.Group, true, mailer.BuildCancellationEmail)
}

func (n *Notifier) send(ctx context.Context, session models.Session, group models.Group, cancelled bool, build func(mailer.SessionEmailData) mailer.Email) {
	organizer, err := n.users.GetByID(ctx, group.OrganizerID)
	if err != nil {
		n.log.Warn("notify: organizer lookup failed",
			zap.String("group_id", group.ID.Hex()),
			zap.Error(err))
	}
	recipients, err := n.users.ListByIDs(ctx, group.ParticipantIDs())
	if err != nil {
		n.log.Warn("notify: recipient lookup failed",
			zap.String("session_id", session.ID.Hex()),
			zap.Error(err))
		return
	}

	ref, body, err := ical.BuildSessionEvent(ical.EventInput{
		Ref:       session.ExternalEventRef,
		Session:   session,
		Group:     group,
		Organizer: organizer,
		Attendees: recipients,
		Cancelled: cancelled,
	})
	if err != nil {
		n.log.Warn("notify: building calendar event failed",
			zap.String("session_id", session.ID.Hex()),
			zap.Error(err))
		body = ""
	}
	if !cancelled && err == nil && session.ExternalEventRef != ref {
		if err := n.sessions.SetExternalEventRef(ctx, session.ID, ref); err != nil {
			n.log.Warn("notify: storing event ref failed",
				zap.String("session_id", session.ID.Hex()),
				zap.Error(err))
		}
	}

	data := mailer.SessionEmailData{
		SiteName:      n.siteName,
		GroupName:     group.Name,
		SessionName:   session.Name,
		Date:          civildate.ToCivilString(session.Date),
		Time:          session.Time,
		Location:      session.Location,
		OrganizerName: organizer.FullName,
		BaseURL:       n.baseURL,
	}

	sent := 0
	for _, u := range recipients {
		if u.Email == "" {
			continue
		}
		msg := build(data)
		msg.To = u.Email
		if body != "" {
			msg.Attachments = append(msg.Attachments, mailer.Attachment{
				Filename:    "session.ics",
				ContentType: "text/calendar; method=REQUEST",
				Body:        body,
			})
		}
		if err := n.mail.Send(msg); err != nil {
			n.log.Warn("notify: mail failed",
				zap.String("to", u.Email),
				zap.Error(err))
			continue
		}
		sent++
	}
	n.log.Info("session notifications sent",
		zap.String("session_id", session.ID.Hex()),
		zap.Bool("cancelled", cancelled),
		zap.Int("mails", sent))
}
