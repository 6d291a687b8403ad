// internal/app/scheduling/service.go
package scheduling

// The scheduling service is the only writer of session rows and the only
// place the availability<->confirmation cascades live. All operations
// validate fully before the first write. The session row write is
// load-bearing; per-user availability writes are best-effort and surface
// as warnings on the result, never as operation failure.

import (
	"context"
	"fmt"
	"time"

	availabilitystore "github.com/dalemusser/gametable/internal/app/store/availability"
	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Service struct {
	availability *availabilitystore.Store
	sessions     *sessionstore.Store
	groups       *groupstore.Store
	log          *zap.Logger
}

func New(availability *availabilitystore.Store, sessions *sessionstore.Store, groups *groupstore.Store, logger *zap.Logger) *Service {
	return &Service{
		availability: availability,
		sessions:     sessions,
		groups:       groups,
		log:          logger,
	}
}

// CreateResult carries what the notification adapters need after a create:
// the stored session, the group as read at creation time, and any
// best-effort cascade failures.
type CreateResult struct {
	Session  models.Session
	Group    models.Group
	Warnings []string
}

// RescheduleResult mirrors CreateResult for updates. DateChanged tells the
// adapter layer whether the confirmed set was recomputed.
type RescheduleResult struct {
	Session     models.Session
	Group       models.Group
	DateChanged bool
}

// CancelResult carries the final snapshot of the deleted session.
type CancelResult struct {
	Session  models.Session
	Group    models.Group
	Warnings []string
}

// StatusResult reports the stored record plus the sessions whose confirmed
// set changed as a consequence.
type StatusResult struct {
	Record                models.AvailabilityRecord
	ConfirmedSessionIDs   []primitive.ObjectID
	UnconfirmedSessionIDs []primitive.ObjectID
	Warnings              []string
}

// Update holds the mutable session fields for a reschedule. Nil pointers
// leave the current value untouched.
type Update struct {
	Date     *time.Time
	Time     *string
	Location *string
	Name     *string
}

// CreateSession schedules a game for the group on the civil date.
//
// Scheduling is a declaration that the game happens: the whole member set is
// snapshotted as confirmed, and every participant (members plus organizer)
// is marked Unavailable for the date so other groups see them as booked.
func (s *Service) CreateSession(ctx context.Context, groupID primitive.ObjectID, date time.Time, timeOfDay, location, name string) (CreateResult, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return CreateResult{}, err
	}
	date = civildate.Truncate(date)
	if err := validTimeOfDay(timeOfDay); err != nil {
		return CreateResult{}, err
	}
	if !EligibleDate(&group, date) {
		return CreateResult{}, ErrDateNotEligible
	}
	if _, err := s.sessions.FindByGroupAndDate(ctx, groupID, date); err == nil {
		return CreateResult{}, ErrSessionExists
	} else if err != ErrSessionNotFound {
		return CreateResult{}, fmt.Errorf("check existing session: %w", err)
	}

	session := models.Session{
		GroupID:            groupID,
		Date:               date,
		Time:               timeOfDay,
		Location:           location,
		Name:               name,
		ConfirmedMemberIDs: append([]primitive.ObjectID{}, group.MemberIDs...),
	}
	// The unique (group_id, date) index backstops the existence check above
	// under concurrent creates.
	if err := s.sessions.Insert(ctx, &session); err != nil {
		return CreateResult{}, err
	}

	result := CreateResult{Session: session, Group: group}
	for _, userID := range group.ParticipantIDs() {
		if _, err := s.availability.SetStatus(ctx, userID, date, models.StatusUnavailable); err != nil {
			s.log.Warn("could not mark participant unavailable",
				zap.String("session_id", session.ID.Hex()),
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("availability not updated for user %s: %v", userID.Hex(), err))
		}
	}

	s.log.Info("session created",
		zap.String("session_id", session.ID.Hex()),
		zap.String("group_id", groupID.Hex()),
		zap.String("date", civildate.ToCivilString(date)),
		zap.Int("confirmed", len(session.ConfirmedMemberIDs)),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// RescheduleSession applies the update. When the date changes, the confirmed
// set is recomputed conservatively from stored availability on the new date:
// only members who said Available or Tentative stay confirmed. The old
// date's forced Unavailable markers are deliberately left in place; a member
// who is genuinely free again clears them by restating availability.
func (s *Service) RescheduleSession(ctx context.Context, sessionID primitive.ObjectID, upd Update) (RescheduleResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return RescheduleResult{}, err
	}
	group, err := s.groups.GetByID(ctx, session.GroupID)
	if err != nil {
		return RescheduleResult{}, err
	}

	if upd.Time != nil {
		if err := validTimeOfDay(*upd.Time); err != nil {
			return RescheduleResult{}, err
		}
	}

	dateChanged := false
	if upd.Date != nil && !civildate.SameDate(*upd.Date, session.Date) {
		newDate := civildate.Truncate(*upd.Date)
		if !EligibleDate(&group, newDate) {
			return RescheduleResult{}, ErrDateNotEligible
		}
		confirmed, err := s.committedMembers(ctx, &group, newDate)
		if err != nil {
			return RescheduleResult{}, fmt.Errorf("recompute confirmed set: %w", err)
		}
		session.Date = newDate
		session.ConfirmedMemberIDs = confirmed
		dateChanged = true
	}
	if upd.Time != nil {
		session.Time = *upd.Time
	}
	if upd.Location != nil {
		session.Location = *upd.Location
	}
	if upd.Name != nil {
		session.Name = *upd.Name
	}

	if err := s.sessions.Update(ctx, &session); err != nil {
		return RescheduleResult{}, err
	}

	s.log.Info("session rescheduled",
		zap.String("session_id", session.ID.Hex()),
		zap.Bool("date_changed", dateChanged),
		zap.String("date", civildate.ToCivilString(session.Date)),
		zap.Int("confirmed", len(session.ConfirmedMemberIDs)))
	return RescheduleResult{Session: session, Group: group, DateChanged: dateChanged}, nil
}

// CancelSession rolls back the forced Unavailable markers and deletes the
// session row. The rollback is conditional: only records still reading
// Unavailable are removed, so a status the user set by hand survives. A
// member who was genuinely unavailable anyway loses that record too; that
// matches the calendar data this engine inherited and is accepted as lossy.
func (s *Service) CancelSession(ctx context.Context, sessionID primitive.ObjectID) (CancelResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return CancelResult{}, err
	}

	result := CancelResult{Session: session}
	group, err := s.groups.GetByID(ctx, session.GroupID)
	if err == ErrGroupNotFound {
		// Group deleted out from under the session: nothing to roll back.
		s.log.Warn("cancelling session of a missing group",
			zap.String("session_id", sessionID.Hex()),
			zap.String("group_id", session.GroupID.Hex()))
		result.Warnings = append(result.Warnings, "group no longer exists; availability not rolled back")
	} else if err != nil {
		return CancelResult{}, err
	} else {
		result.Group = group
		for _, userID := range group.ParticipantIDs() {
			if _, err := s.availability.DeleteIfStatus(ctx, userID, session.Date, models.StatusUnavailable); err != nil {
				s.log.Warn("could not roll back availability",
					zap.String("session_id", sessionID.Hex()),
					zap.String("user_id", userID.Hex()),
					zap.Error(err))
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("availability not rolled back for user %s: %v", userID.Hex(), err))
			}
		}
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return CancelResult{}, err
	}

	s.log.Info("session cancelled",
		zap.String("session_id", sessionID.Hex()),
		zap.String("date", civildate.ToCivilString(session.Date)),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// SetUserStatus stores the user's availability for the date and syncs the
// confirmed set of every session on that date in groups where the user is a
// member. Organizers are tracked on the group, not in confirmed sets, so
// their statement only updates the record.
func (s *Service) SetUserStatus(ctx context.Context, userID primitive.ObjectID, date time.Time, status models.Status) (StatusResult, error) {
	if !status.Valid() {
		return StatusResult{}, ErrInvalidStatus
	}
	date = civildate.Truncate(date)

	record, err := s.availability.SetStatus(ctx, userID, date, status)
	if err != nil {
		return StatusResult{}, fmt.Errorf("store availability: %w", err)
	}
	result := StatusResult{Record: record}

	groupIDs, err := s.groups.MemberGroupIDsForUser(ctx, userID)
	if err != nil {
		return StatusResult{}, fmt.Errorf("list member groups: %w", err)
	}
	sessions, err := s.sessions.ListOnDateForGroups(ctx, groupIDs, date)
	if err != nil {
		return StatusResult{}, fmt.Errorf("list sessions on date: %w", err)
	}

	for _, session := range sessions {
		if status.Commits() {
			err = s.sessions.AddConfirmed(ctx, session.ID, userID)
		} else {
			err = s.sessions.RemoveConfirmed(ctx, session.ID, userID)
		}
		if err != nil {
			s.log.Warn("could not sync session confirmation",
				zap.String("session_id", session.ID.Hex()),
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("confirmation not synced for session %s: %v", session.ID.Hex(), err))
			continue
		}
		if status.Commits() {
			result.ConfirmedSessionIDs = append(result.ConfirmedSessionIDs, session.ID)
		} else {
			result.UnconfirmedSessionIDs = append(result.UnconfirmedSessionIDs, session.ID)
		}
	}
	return result, nil
}

// ConfirmAttendance adds the member to the session's confirmed set directly,
// regardless of stored availability. Idempotent.
func (s *Service) ConfirmAttendance(ctx context.Context, sessionID, userID primitive.ObjectID) (models.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}
	group, err := s.groups.GetByID(ctx, session.GroupID)
	if err != nil {
		return models.Session{}, err
	}
	if !group.HasMember(userID) {
		return models.Session{}, ErrNotMember
	}
	if err := s.sessions.AddConfirmed(ctx, sessionID, userID); err != nil {
		return models.Session{}, err
	}
	return s.sessions.GetByID(ctx, sessionID)
}

// committedMembers returns the group members whose stored availability on
// the date counts as a commitment (Available or Tentative).
func (s *Service) committedMembers(ctx context.Context, group *models.Group, date time.Time) ([]primitive.ObjectID, error) {
	records, err := s.availability.ListForUsers(ctx, group.MemberIDs, date, date)
	if err != nil {
		return nil, err
	}
	confirmed := []primitive.ObjectID{}
	for _, rec := range records {
		if rec.Status.Commits() {
			confirmed = append(confirmed, rec.UserID)
		}
	}
	return confirmed, nil
}

func validTimeOfDay(s string) error {
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTime
	}
	return nil
}
