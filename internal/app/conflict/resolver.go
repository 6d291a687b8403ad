// internal/app/conflict/resolver.go
package conflict

// The resolver answers "is this user actually free on this date" by looking
// past the self-reported availability record. A user confirmed for a session,
// or organizing a group that plays that day, is booked no matter what their
// record says — sessions are system-wide, so the scan crosses group lines.

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
)

type Resolver struct {
	availability *availabilitystore.Store
	sessions     *sessionstore.Store
	groups       *groupstore.Store
}

func New(availability *availabilitystore.Store, sessions *sessionstore.Store, groups *groupstore.Store) *Resolver {
	return &Resolver{availability: availability, sessions: sessions, groups: groups}
}

// SessionBlocking returns the session that books the user on the date, or
// nil when none does. A session blocks when the user is in its confirmed set
// or organizes its group.
func (r *Resolver) SessionBlocking(ctx context.Context, userID primitive.ObjectID, date time.Time) (*models.Session, error) {
	sessions, err := r.sessions.ListOnDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list sessions on date: %w", err)
	}

	for i := range sessions {
		session := &sessions[i]
		if session.IsConfirmed(userID) {
			return session, nil
		}
		group, err := r.groups.GetByID(ctx, session.GroupID)
		if err == groupstore.ErrGroupNotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load group %s: %w", session.GroupID.Hex(), err)
		}
		if group.OrganizerID == userID {
			return session, nil
		}
	}
	return nil, nil
}

// Entry is one user's effective availability on one date, as produced by
// EffectiveForUsers. BlockingSessionID is set when a session forced the
// status.
type Entry struct {
	UserID            primitive.ObjectID
	Date              time.Time
	Status            models.Status
	BlockingSessionID *primitive.ObjectID
}

// EffectiveForUsers computes effective statuses for a set of users over an
// inclusive date range in bulk: one availability query, one session query,
// and one group lookup per distinct group. Pairs with neither a record nor
// a blocking session are omitted (implicitly Unknown).
func (r *Resolver) EffectiveForUsers(ctx context.Context, userIDs []primitive.ObjectID, from, to time.Time) ([]Entry, error) {
	records, err := r.availability.ListForUsers(ctx, userIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	sessions, err := r.sessions.ListUpcoming(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	users := make(map[primitive.ObjectID]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}

	type key struct {
		user primitive.ObjectID
		date string
	}
	blocked := map[key]primitive.ObjectID{}
	groupCache := map[primitive.ObjectID]*models.Group{}

	for i := range sessions {
		session := &sessions[i]
		dateKey := civildate.ToCivilString(session.Date)
		for _, memberID := range session.ConfirmedMemberIDs {
			if _, ok := users[memberID]; ok {
				blocked[key{memberID, dateKey}] = session.ID
			}
		}

		group, ok := groupCache[session.GroupID]
		if !ok {
			g, err := r.groups.GetByID(ctx, session.GroupID)
			if err == groupstore.ErrGroupNotFound {
				groupCache[session.GroupID] = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load group %s: %w", session.GroupID.Hex(), err)
			}
			group = &g
			groupCache[session.GroupID] = group
		}
		if group == nil {
			continue
		}
		if _, ok := users[group.OrganizerID]; ok {
			blocked[key{group.OrganizerID, dateKey}] = session.ID
		}
	}

	var entries []Entry
	covered := map[key]struct{}{}
	for _, rec := range records {
		k := key{rec.UserID, civildate.ToCivilString(rec.Date)}
		covered[k] = struct{}{}
		entry := Entry{UserID: rec.UserID, Date: rec.Date, Status: rec.Status}
		if sessionID, ok := blocked[k]; ok {
			id := sessionID
			entry.Status = models.StatusUnavailable
			entry.BlockingSessionID = &id
		}
		entries = append(entries, entry)
	}
	// Blocked pairs without a stored record still surface as Unavailable.
	for k, sessionID := range blocked {
		if _, ok := covered[k]; ok {
			continue
		}
		date, err := civildate.Normalize(k.date)
		if err != nil {
			continue
		}
		id := sessionID
		entries = append(entries, Entry{
			UserID:            k.user,
			Date:              date,
			Status:            models.StatusUnavailable,
			BlockingSessionID: &id,
		})
	}
	return entries, nil
}

// EffectiveStatus is the status other schedulers should act on: a blocking
// session forces Unavailable, otherwise the stored record stands (Unknown
// when there is none). The blocking session, if any, is returned alongside.
func (r *Resolver) EffectiveStatus(ctx context.Context, userID primitive.ObjectID, date time.Time) (models.Status, *models.Session, error) {
	blocking, err := r.SessionBlocking(ctx, userID, date)
	if err != nil {
		return models.StatusUnknown, nil, err
	}
	if blocking != nil {
		return models.StatusUnavailable, blocking, nil
	}

	status, err := r.availability.GetStatus(ctx, userID, date)
	if err != nil {
		return models.StatusUnknown, nil, fmt.Errorf("stored availability: %w", err)
	}
	return status, nil, nil
}
