package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/whenworks/calendar-api/internal/api/handlers"
	mw "github.com/whenworks/calendar-api/internal/api/middleware"
)

type Dependencies struct {
	TokenResolver  mw.TokenResolver
	AuthHandler    *handlers.AuthHandler
	UsersHandler   *handlers.UsersHandler
	EventsHandler  *handlers.EventsHandler
	SharingHandler *handlers.SharingHandler
	HealthHandler  *handlers.HealthHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health endpoints
	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)

	// Auth routes (register/login public, the rest behind the bearer check)
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", dep.AuthHandler.Register)
		ar.Post("/login", dep.AuthHandler.Login)

		ar.Group(func(pr chi.Router) {
			pr.Use(mw.Auth(dep.TokenResolver))
			pr.Get("/me", dep.AuthHandler.Me)
			pr.Put("/me", dep.AuthHandler.UpdateMe)
			pr.Delete("/me", dep.AuthHandler.DeleteMe)
		})
	})

	// Protected routes
	r.Group(func(protected chi.Router) {
		protected.Use(mw.Auth(dep.TokenResolver))

		protected.Route("/users", func(ur chi.Router) {
			ur.Get("/", dep.UsersHandler.List)
			ur.Get("/{id}", dep.UsersHandler.Get)
		})

		protected.Route("/events", func(er chi.Router) {
			er.Get("/", dep.EventsHandler.List)
			er.Post("/", dep.EventsHandler.Create)
			er.Get("/calendar.ics", dep.EventsHandler.ExportICS)
			er.Put("/{id}", dep.EventsHandler.Update)
			er.Delete("/{id}", dep.EventsHandler.Delete)
		})

		protected.Route("/shared", func(sr chi.Router) {
			sr.Get("/", dep.SharingHandler.ListSharedByMe)
			sr.Post("/share/{user_id}", dep.SharingHandler.Share)
			sr.Delete("/unshare/{user_id}", dep.SharingHandler.Unshare)

			sr.Get("/shared-with-me", dep.SharingHandler.ListSharedWithMe)
			sr.Post("/share-with-me/{user_id}", dep.SharingHandler.AcceptShare)
			sr.Delete("/unshare-with-me/{user_id}", dep.SharingHandler.RevokeShare)

			sr.Get("/shared-with-me/{user_id}", dep.SharingHandler.GetSharedCalendar)
			sr.Get("/shared-with-me/{user_id}/events", dep.SharingHandler.ListSharedEvents)
			sr.Post("/share-with-me/{user_id}/events", dep.SharingHandler.CreateSharedEvent)
			sr.Delete("/unshare-with-me/{user_id}/events/{event_id}", dep.SharingHandler.DeleteSharedEvent)
		})
	})

	return r
}
