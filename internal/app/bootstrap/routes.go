// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	availabilityfeature "github.com/dalemusser/gametable/internal/app/features/availability"
	groupsfeature "github.com/dalemusser/gametable/internal/app/features/groups"
	healthfeature "github.com/dalemusser/gametable/internal/app/features/health"
	loginfeature "github.com/dalemusser/gametable/internal/app/features/login"
	logoutfeature "github.com/dalemusser/gametable/internal/app/features/logout"
	sessionsfeature "github.com/dalemusser/gametable/internal/app/features/sessions"
	"github.com/dalemusser/gametable/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. The router mounts:
//   - /health and /login publicly
//   - /logout, /availability, /sessions, /groups behind the signed-in gate
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName,
		appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Loads SessionUser into context when a valid session cookie is present.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	loginHandler := loginfeature.NewHandler(deps.Users, sessionMgr, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		availabilityHandler := availabilityfeature.NewHandler(
			deps.Availability, deps.Groups, deps.Scheduler, deps.Resolver, logger)
		r.Mount("/availability", availabilityfeature.Routes(availabilityHandler))

		sessionsHandler := sessionsfeature.NewHandler(
			deps.Sessions, deps.Groups, deps.Scheduler, deps.Notifier, logger)
		r.Mount("/sessions", sessionsfeature.Routes(sessionsHandler))

		groupsHandler := groupsfeature.NewHandler(deps.Groups, logger)
		r.Mount("/groups", groupsfeature.Routes(groupsHandler))
	})

	return r, nil
}
