// internal/app/features/sessions/routes.go
package sessions

import "github.com/go-chi/chi/v5"

// Routes returns the sessions subrouter; callers mount it behind the
// signed-in middleware under /sessions.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/confirm", h.Confirm)
	return r
}
