package availability

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/gametable/internal/app/conflict"
	"github.com/dalemusser/gametable/internal/app/features/shared"
	"github.com/dalemusser/gametable/internal/app/scheduling"
	availabilitystore "github.com/dalemusser/gametable/internal/app/store/availability"
	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/app/system/timeouts"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Availability *availabilitystore.Store
	Groups       *groupstore.Store
	Scheduler    *scheduling.Service
	Resolver     *conflict.Resolver
	Log          *zap.Logger
}

func NewHandler(
	availability *availabilitystore.Store,
	groups *groupstore.Store,
	scheduler *scheduling.Service,
	resolver *conflict.Resolver,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Availability: availability,
		Groups:       groups,
		Scheduler:    scheduler,
		Resolver:     resolver,
		Log:          logger,
	}
}

type recordJSON struct {
	UserID string        `json:"user_id"`
	Date   string        `json:"date"`
	Status models.Status `json:"status"`
}

func toRecordJSON(rec models.AvailabilityRecord) recordJSON {
	return recordJSON{
		UserID: rec.UserID.Hex(),
		Date:   civildate.ToCivilString(rec.Date),
		Status: rec.Status,
	}
}

// List handles GET /availability?start=YYYY-MM-DD&end=YYYY-MM-DD, returning
// the caller's own records in the inclusive range.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		shared.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	records, err := h.Availability.ListForUser(ctx, userID, from, to)
	if err != nil {
		h.Log.Error("list availability failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]recordJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordJSON(rec))
	}
	shared.JSON(w, http.StatusOK, map[string]any{"records": out})
}

type setStatusRequest struct {
	Date   string        `json:"date"`
	Status models.Status `json:"status"`
}

type setStatusResponse struct {
	Record                recordJSON `json:"record"`
	ConfirmedSessionIDs   []string   `json:"confirmed_session_ids"`
	UnconfirmedSessionIDs []string   `json:"unconfirmed_session_ids"`
	Warnings              []string   `json:"warnings,omitempty"`
}

// SetStatus handles POST /availability {date,status}: the availability
// declaration plus its confirmation cascade.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req setStatusRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := civildate.Normalize(req.Date)
	if err != nil {
		shared.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	result, err := h.Scheduler.SetUserStatus(ctx, userID, date, req.Status)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return
	}

	shared.JSON(w, http.StatusOK, setStatusResponse{
		Record:                toRecordJSON(result.Record),
		ConfirmedSessionIDs:   hexIDs(result.ConfirmedSessionIDs),
		UnconfirmedSessionIDs: hexIDs(result.UnconfirmedSessionIDs),
		Warnings:              result.Warnings,
	})
}

// Reset handles DELETE /availability, wiping all of the caller's records.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Availability.DeleteAllForUser(ctx, userID)
	if err != nil {
		h.Log.Error("availability reset failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.Log.Info("availability reset",
		zap.String("user_id", userID.Hex()),
		zap.Int64("deleted", n))
	shared.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

type effectiveJSON struct {
	UserID            string        `json:"user_id"`
	Date              string        `json:"date"`
	Status            models.Status `json:"status"`
	BlockingSessionID string        `json:"blocking_session_id,omitempty"`
}

// GroupCalendar handles GET /availability/group/{id}?start&end: the
// effective availability of every participant, visible to participants only.
func (h *Handler) GroupCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusNotFound, "group not found")
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		shared.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, err := h.Groups.GetByID(ctx, groupID)
	if err != nil {
		shared.EngineError(w, h.Log, err)
		return
	}
	if !group.IsParticipant(userID) {
		shared.Error(w, http.StatusForbidden, "not a participant of this group")
		return
	}

	entries, err := h.Resolver.EffectiveForUsers(ctx, group.ParticipantIDs(), from, to)
	if err != nil {
		h.Log.Error("group calendar failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]effectiveJSON, 0, len(entries))
	for _, e := range entries {
		ej := effectiveJSON{
			UserID: e.UserID.Hex(),
			Date:   civildate.ToCivilString(e.Date),
			Status: e.Status,
		}
		if e.BlockingSessionID != nil {
			ej.BlockingSessionID = e.BlockingSessionID.Hex()
		}
		out = append(out, ej)
	}
	shared.JSON(w, http.StatusOK, map[string]any{"entries": out})
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := civildate.Normalize(r.URL.Query().Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := civildate.Normalize(r.URL.Query().Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
