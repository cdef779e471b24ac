package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sapsan-irt/api/handlers"
)

func (s *Server) Routes() http.Handler {
	authH := handlers.NewAuthHandler(s.cfg, s.users, s.sessionManager, s.audits, s.logger)
	accountsH := handlers.NewAccountsHandler(s.cfg, s.users, s.sessions, s.guard, s.audits, s.logger)
	teamsH := handlers.NewTeamsHandler(s.teams, s.users, s.guard, s.audits, s.logger)
	incidentsH := handlers.NewIncidentsHandler(s.incidentsSvc, s.users, s.logger)

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware, s.securityHeadersMiddleware, s.loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.rateLimitMiddleware(authH.Login))
			r.Post("/logout", s.withSession(authH.Logout))
			r.Get("/me", s.withSession(authH.Me))
		})

		r.Route("/accounts/users", func(r chi.Router) {
			r.Get("/", s.guarded(accountsH.List))
			r.Post("/", s.guarded(accountsH.Create))
			r.Get("/{id}", s.guarded(accountsH.Get))
			r.Put("/{id}", s.guarded(accountsH.Update))
			r.Delete("/{id}", s.guarded(accountsH.Delete))
			r.Put("/{id}/platform-manager", s.guarded(accountsH.SetPlatformManager))
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", s.guarded(teamsH.List))
			r.Post("/", s.guarded(teamsH.Create))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.guarded(teamsH.Get))
				r.Get("/members", s.guarded(teamsH.ListMembers))
				r.Post("/members", s.guarded(teamsH.AddMember))
				r.Put("/members/{user_id}", s.guarded(teamsH.UpdateMemberRole))
				r.Delete("/members/{user_id}", s.guarded(teamsH.RemoveMember))

				r.Route("/incidents", func(r chi.Router) {
					r.Get("/", s.guarded(incidentsH.List))
					r.Post("/", s.guarded(incidentsH.Create))
					r.Get("/{incident_id}", s.guarded(incidentsH.Get))
					r.Put("/{incident_id}", s.guarded(incidentsH.UpdateDetails))
					r.Put("/{incident_id}/status", s.guarded(incidentsH.ChangeStatus))
					r.Put("/{incident_id}/assignee", s.guarded(incidentsH.Reassign))
				})
			})
		})
	})

	return r
}

// guarded is the standard chain for everything past login: a resolved
// session first, then the coarse route-area policy.
func (s *Server) guarded(next http.HandlerFunc) http.HandlerFunc {
	return s.withSession(s.requireRouteAccess(next))
}
