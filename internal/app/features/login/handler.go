package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/gametable/internal/app/features/shared"
	userstore "github.com/dalemusser/gametable/internal/app/store/users"
	"github.com/dalemusser/gametable/internal/app/system/auth"
	"github.com/dalemusser/gametable/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Users: users, SessionMgr: sessionMgr, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Serve handles POST /login. Bad email and bad password answer the same 401
// so the endpoint cannot be used to probe for accounts.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		shared.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, userstore.ErrBadCredentials) {
		shared.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.Log.Error("login failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	sessionUser := auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, sessionUser); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("user signed in",
		zap.String("user_id", sessionUser.ID),
		zap.String("role", sessionUser.Role))
	shared.JSON(w, http.StatusOK, loginResponse{
		ID:    sessionUser.ID,
		Name:  sessionUser.Name,
		Email: sessionUser.Email,
		Role:  sessionUser.Role,
	})
}
