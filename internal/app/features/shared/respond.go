// internal/app/features/shared/respond.go

// Package shared holds the JSON plumbing every feature handler uses:
// response encoding and the single mapping from engine errors to HTTP
// status codes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/gametable/internal/app/scheduling"
	"github.com/dalemusser/gametable/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// Error writes a JSON error body with the given status code.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, errorBody{Error: msg})
}

// EngineError maps a scheduling/store error to its HTTP response. Unmatched
// errors are logged and answered with a generic 500 so storage details never
// leak to clients.
func EngineError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidDate),
		errors.Is(err, scheduling.ErrInvalidTime),
		errors.Is(err, scheduling.ErrInvalidStatus),
		errors.Is(err, scheduling.ErrDateNotEligible):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, scheduling.ErrSessionExists):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, scheduling.ErrSessionNotFound),
		errors.Is(err, scheduling.ErrGroupNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scheduling.ErrNotMember):
		Error(w, http.StatusForbidden, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// Decode reads a JSON request body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// CurrentUserID extracts the signed-in user's ObjectID from the request
// context. The second return is false when there is no user or the session
// carries a malformed ID.
func CurrentUserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
