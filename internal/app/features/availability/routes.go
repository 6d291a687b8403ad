// internal/app/features/availability/routes.go
package availability

import "github.com/go-chi/chi/v5"

// Routes returns the availability subrouter; callers mount it behind the
// signed-in middleware under /availability.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.SetStatus)
	r.Delete("/", h.Reset)
	r.Get("/group/{id}", h.GroupCalendar)
	return r
}
