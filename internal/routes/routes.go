package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/gather-web/internal/handlers"
	"github.com/AnshRaj112/gather-web/internal/middleware"
)

// SetupRoutes registers the screens. Every route except /health runs with
// the browser session loaded.
func SetupRoutes(r chi.Router, h *handlers.Handler) {
	// Health check (no session)
	r.Get("/health", handlers.Health)

	r.Group(func(r chi.Router) {
		r.Use(h.LoadSession)
		r.Use(middleware.SubmitRateLimit(handlers.Authenticated))

		r.Get("/", h.Home)

		r.Get("/login", h.Login)
		r.Post("/login", h.Login)
		r.Get("/auth/callback", h.Callback)
		r.Post("/logout", h.Logout)

		r.Get("/loading", h.Loading)
		r.Get("/ws/session", h.SessionEvents)

		r.Get("/create", h.CreatePage)
		r.Post("/create", h.Create)

		r.Get("/manage", h.ManagePage)
		r.Post("/manage", h.Manage)
		r.Get("/manage/delete", h.DeletePage)
		r.Post("/manage/delete", h.Delete)
		r.Post("/manage/picture", h.UploadPicture)

		r.Get("/gathering/{gatheringId}", h.GatheringPage)
		r.Post("/gathering/{gatheringId}", h.SubmitRsvp)

		r.NotFound(h.NotFound)
	})
}

// Routes lists the registered routes for the start-up log.
var Routes = []string{
	"GET  /health",
	"GET  /",
	"GET  /login, POST /login",
	"GET  /auth/callback",
	"POST /logout",
	"GET  /loading",
	"GET  /ws/session",
	"GET  /create, POST /create",
	"GET  /manage, POST /manage",
	"GET  /manage/delete, POST /manage/delete",
	"POST /manage/picture",
	"GET  /gathering/{gatheringId}, POST /gathering/{gatheringId}",
}
