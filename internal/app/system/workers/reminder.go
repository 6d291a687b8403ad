// internal/app/system/workers/reminder.go
package workers

import (
	"context"
	"fmt"
	"time"

	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	userstore "github.com/dalemusser/gametable/internal/app/store/users"
	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/app/system/mailer"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultReminderSpec fires the reminder sweep every morning at 09:00 in
// the reference timezone.
const DefaultReminderSpec = "0 9 * * *"

// Reminder is a background worker that mails every confirmed member and the
// organizer of tomorrow's sessions.
type Reminder struct {
	sessions *sessionstore.Store
	groups   *groupstore.Store
	users    *userstore.Store
	mail     *mailer.Mailer
	log      *zap.Logger

	siteName string
	baseURL  string
	spec     string
	cron     *cron.Cron
}

func NewReminder(
	sessions *sessionstore.Store,
	groups *groupstore.Store,
	users *userstore.Store,
	mail *mailer.Mailer,
	siteName, baseURL, spec string,
	logger *zap.Logger,
) *Reminder {
	if spec == "" {
		spec = DefaultReminderSpec
	}
	return &Reminder{
		sessions: sessions,
		groups:   groups,
		users:    users,
		mail:     mail,
		log:      logger,
		siteName: siteName,
		baseURL:  baseURL,
		spec:     spec,
	}
}

// Start schedules the sweep. The cron runner evaluates the spec in the
// reference timezone so "9am" means 9am for the people being reminded.
func (w *Reminder) Start() error {
	w.cron = cron.New(cron.WithLocation(civildate.Zone()))
	if _, err := w.cron.AddFunc(w.spec, w.sweep); err != nil {
		return fmt.Errorf("bad reminder cron spec %q: %w", w.spec, err)
	}
	w.cron.Start()
	w.log.Info("reminder worker started", zap.String("spec", w.spec))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *Reminder) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.log.Info("reminder worker stopped")
}

func (w *Reminder) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tomorrow := civildate.Truncate(time.Now().AddDate(0, 0, 1))
	sessions, err := w.sessions.ListUpcoming(ctx, tomorrow, tomorrow)
	if err != nil {
		w.log.Error("reminder sweep: listing sessions failed", zap.Error(err))
		return
	}

	sent := 0
	for _, session := range sessions {
		sent += w.remind(ctx, session)
	}
	if len(sessions) > 0 {
		w.log.Info("reminder sweep finished",
			zap.String("date", civildate.ToCivilString(tomorrow)),
			zap.Int("sessions", len(sessions)),
			zap.Int("mails", sent))
	}
}

func (w *Reminder) remind(ctx context.Context, session models.Session) int {
	group, err := w.groups.GetByID(ctx, session.GroupID)
	if err != nil {
		w.log.Warn("reminder sweep: group lookup failed",
			zap.String("session_id", session.ID.Hex()),
			zap.Error(err))
		return 0
	}
	organizer, err := w.users.GetByID(ctx, group.OrganizerID)
	if err != nil {
		w.log.Warn("reminder sweep: organizer lookup failed",
			zap.String("group_id", group.ID.Hex()),
			zap.Error(err))
	}

	recipients, err := w.users.ListByIDs(ctx,
		append(append([]primitive.ObjectID{}, session.ConfirmedMemberIDs...), group.OrganizerID))
	if err != nil {
		w.log.Warn("reminder sweep: recipient lookup failed",
			zap.String("session_id", session.ID.Hex()),
			zap.Error(err))
		return 0
	}

	data := mailer.SessionEmailData{
		SiteName:      w.siteName,
		GroupName:     group.Name,
		SessionName:   session.Name,
		Date:          civildate.ToCivilString(session.Date),
		Time:          session.Time,
		Location:      session.Location,
		OrganizerName: organizer.FullName,
		BaseURL:       w.baseURL,
	}

	sent := 0
	for _, u := range recipients {
		msg := mailer.BuildReminderEmail(data)
		msg.To = u.Email
		if err := w.mail.Send(msg); err != nil {
			w.log.Warn("reminder mail failed",
				zap.String("to", u.Email),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
