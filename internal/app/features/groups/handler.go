package groups

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/gametable/internal/app/features/shared"
	"github.com/dalemusser/gametable/internal/app/scheduling"
	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/app/system/timeouts"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultUpcomingCount = 10

type Handler struct {
	Groups *groupstore.Store
	Log    *zap.Logger
}

func NewHandler(groups *groupstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Groups: groups, Log: logger}
}

type groupJSON struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	OrganizerID       string   `json:"organizer_id"`
	MemberIDs         []string `json:"member_ids"`
	RecurringWeekdays []string `json:"recurring_weekdays"`
	OneOffDates       []string `json:"one_off_dates,omitempty"`
}

func toGroupJSON(g models.Group) groupJSON {
	members := make([]string, len(g.MemberIDs))
	for i, id := range g.MemberIDs {
		members[i] = id.Hex()
	}
	oneOffs := make([]string, len(g.OneOffDates))
	for i, d := range g.OneOffDates {
		oneOffs[i] = civildate.ToCivilString(d)
	}
	return groupJSON{
		ID:                g.ID.Hex(),
		Name:              g.Name,
		Description:       g.Description,
		OrganizerID:       g.OrganizerID.Hex(),
		MemberIDs:         members,
		RecurringWeekdays: g.RecurringWeekdays,
		OneOffDates:       oneOffs,
	}
}

// List handles GET /groups: every group the caller organizes or plays in.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groups, err := h.Groups.ListForUser(ctx, userID)
	if err != nil {
		h.Log.Error("list groups failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]groupJSON, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupJSON(g))
	}
	shared.JSON(w, http.StatusOK, map[string]any{"groups": out})
}

// Get handles GET /groups/{id}, visible to participants only.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, ok := h.loadParticipantGroup(ctx, w, r, userID)
	if !ok {
		return
	}
	shared.JSON(w, http.StatusOK, map[string]any{"group": toGroupJSON(group)})
}

// UpcomingDates handles GET /groups/{id}/upcoming-dates?from&count: the next
// schedulable dates expanded from the group's recurring weekdays and one-offs.
func (h *Handler) UpcomingDates(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	from := civildate.Today()
	if raw := r.URL.Query().Get("from"); raw != "" {
		var err error
		from, err = civildate.Normalize(raw)
		if err != nil {
			shared.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	count := defaultUpcomingCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			shared.Error(w, http.StatusUnprocessableEntity, "count must be a positive integer")
			return
		}
		count = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, ok := h.loadParticipantGroup(ctx, w, r, userID)
	if !ok {
		return
	}

	dates, err := scheduling.UpcomingEligibleDates(&group, from, count)
	if err != nil {
		h.Log.Error("expanding upcoming dates failed",
			zap.String("group_id", group.ID.Hex()),
			zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = civildate.ToCivilString(d)
	}
	shared.JSON(w, http.StatusOK, map[string]any{"dates": out})
}

// loadParticipantGroup fetches the {id} group and checks the caller belongs
// to it. Writes the error response itself when it reports false.
func (h *Handler) loadParticipantGroup(ctx context.Context, w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) (models.Group, bool) {
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "group not found")
		return models.Group{}, false
	}
	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return models.Group{}, false
	}
	if !group.IsParticipant(userID) {
		shared.Error(w, http.StatusForbidden, "not a participant of this group")
		return models.Group{}, false
	}
	return group, true
}
