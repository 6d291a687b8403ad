package sessions

import (
	"context"
	"net/http"

	"github.com/dalemusser/gametable/internal/app/features/shared"
	"github.com/dalemusser/gametable/internal/app/notify"
	"github.com/dalemusser/gametable/internal/app/scheduling"
	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	sessionstore "github.com/dalemusser/gametable/internal/app/store/sessions"
	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/app/system/sanitize"
	"github.com/dalemusser/gametable/internal/app/system/timeouts"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Sessions  *sessionstore.Store
	Groups    *groupstore.Store
	Scheduler *scheduling.Service
	Notifier  *notify.Notifier
	Log       *zap.Logger
}

func NewHandler(
	sessions *sessionstore.Store,
	groups *groupstore.Store,
	scheduler *scheduling.Service,
	notifier *notify.Notifier,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Sessions:  sessions,
		Groups:    groups,
		Scheduler: scheduler,
		Notifier:  notifier,
		Log:       logger,
	}
}

type sessionJSON struct {
	ID                 string   `json:"id"`
	GroupID            string   `json:"group_id"`
	Date               string   `json:"date"`
	Time               string   `json:"time"`
	Location           string   `json:"location"`
	Name               string   `json:"name,omitempty"`
	ConfirmedMemberIDs []string `json:"confirmed_member_ids"`
}

func toSessionJSON(s models.Session) sessionJSON {
	confirmed := make([]string, len(s.ConfirmedMemberIDs))
	for i, id := range s.ConfirmedMemberIDs {
		confirmed[i] = id.Hex()
	}
	return sessionJSON{
		ID:                 s.ID.Hex(),
		GroupID:            s.GroupID.Hex(),
		Date:               civildate.ToCivilString(s.Date),
		Time:               s.Time,
		Location:           s.Location,
		Name:               s.Name,
		ConfirmedMemberIDs: confirmed,
	}
}

// List handles GET /sessions: all sessions of the caller's groups,
// ascending by date.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groupIDs, err := h.Groups.IDsForUser(ctx, userID)
	if err != nil {
		h.Log.Error("list groups failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	sessions, err := h.Sessions.ListForGroups(ctx, groupIDs)
	if err != nil {
		h.Log.Error("list sessions failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionJSON(s))
	}
	shared.JSON(w, http.StatusOK, map[string]any{"sessions": out})
}

type createRequest struct {
	GroupID  string `json:"group_id"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Name     string `json:"name"`
}

// Create handles POST /sessions. Only the group's organizer may schedule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		shared.Error(w, http.StatusNotFound, "group not found")
		return
	}
	date, err := civildate.Normalize(req.Date)
	if err != nil {
		shared.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return
	}
	if group.OrganizerID != userID {
		shared.Error(w, http.StatusForbidden, "only the organizer may schedule sessions")
		return
	}

	result, err := h.Scheduler.CreateSession(ctx, groupID, date,
		req.Time, sanitize.Text(req.Location), sanitize.Text(req.Name))
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return
	}
	h.Notifier.SessionCreated(ctx, result)

	shared.JSON(w, http.StatusCreated, map[string]any{
		"session":  toSessionJSON(result.Session),
		"warnings": result.Warnings,
	})
}

type updateRequest struct {
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Location *string `json:"location"`
	Name     *string `json:"name"`
}

// Update handles PUT /sessions/{id}. Only the organizer may reschedule.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "session not found")
		return
	}
	var req updateRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if !h.requireOrganizer(ctx, w, sessionID, userID) {
		return
	}

	upd := scheduling.Update{Time: req.Time}
	if req.Date != nil {
		date, err := civildate.Normalize(*req.Date)
		if err != nil {
			shared.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Date = &date
	}
	if req.Location != nil {
		loc := sanitize.Text(*req.Location)
		upd.Location = &loc
	}
	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		upd.Name = &name
	}

	result, err := h.Scheduler.RescheduleSession(ctx, sessionID, upd)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return
	}
	h.Notifier.SessionUpdated(ctx, result)

	shared.JSON(w, http.StatusOK, map[string]any{
		"session": toSessionJSON(result.Session),
	})
}

// Delete handles DELETE /sessions/{id}. Only the organizer may cancel.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "session not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if !h.requireOrganizer(ctx, w, sessionID, userID) {
		return
	}

	result, err := h.Scheduler.CancelSession(ctx, sessionID)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return
	}
	h.Notifier.SessionCancelled(ctx, result)

	shared.JSON(w, http.StatusOK, map[string]any{
		"status":   "cancelled",
		"warnings": result.Warnings,
	})
}

// Confirm handles POST /sessions/{id}/confirm: a member's direct "I'll be
// there", independent of stored availability.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "session not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	session, err := h.Scheduler.ConfirmAttendance(ctx, sessionID, userID)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]any{"session": toSessionJSON(session)})
}

// requireOrganizer loads the session's group and checks the caller runs it.
// Writes the error response itself and reports whether to continue.
func (h *Handler) requireOrganizer(ctx context.Context, w http.ResponseWriter, sessionID, userID primitive.ObjectID) bool {
	session, err := h.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return false
	}
	group, err := h.Groups.GetByID(ctx, session.GroupID)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return false
	}
	if group.OrganizerID != userID {
		shared.Error(w, http.StatusForbidden, "only the organizer may modify sessions")
		return false
	}
	return true
}
