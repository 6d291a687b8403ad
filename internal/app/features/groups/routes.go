// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

// Routes returns the groups subrouter; callers mount it behind the
// signed-in middleware under /groups.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/upcoming-dates", h.UpcomingDates)
	return r
}
