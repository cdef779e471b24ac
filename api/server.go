package api

import (
	"context"
	"net/http"
	"time"

	"sapsan-irt/config"
	"sapsan-irt/core/auth"
	"sapsan-irt/core/incidents"
	"sapsan-irt/core/rbac"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

// BackgroundWorker is anything the server starts alongside the listener
// and stops on shutdown.
type BackgroundWorker interface {
	Start() error
	Stop()
}

type ServerDeps struct {
	Users          store.UsersStore
	Teams          store.TeamsStore
	Incidents      store.IncidentsStore
	Sessions       store.SessionStore
	Audits         store.AuditStore
	Guard          *rbac.Guard
	SessionManager *auth.SessionManager
	IncidentsSvc   *incidents.Service
}

type Server struct {
	cfg             *config.AppConfig
	logger          *utils.Logger
	users           store.UsersStore
	teams           store.TeamsStore
	incidentsStore  store.IncidentsStore
	sessions        store.SessionStore
	audits          store.AuditStore
	guard           *rbac.Guard
	sessionManager  *auth.SessionManager
	incidentsSvc    *incidents.Service
	routePolicy     *RoutePolicy
	activityTracker *sessionActivity
	httpServer      *http.Server
	workers         []BackgroundWorker
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) (*Server, error) {
	policy, err := NewRoutePolicy()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:             cfg,
		logger:          logger,
		users:           deps.Users,
		teams:           deps.Teams,
		incidentsStore:  deps.Incidents,
		sessions:        deps.Sessions,
		audits:          deps.Audits,
		guard:           deps.Guard,
		sessionManager:  deps.SessionManager,
		incidentsSvc:    deps.IncidentsSvc,
		routePolicy:     policy,
		activityTracker: newSessionActivity(),
	}, nil
}

func (s *Server) AddWorker(w BackgroundWorker) {
	s.workers = append(s.workers, w)
}

func (s *Server) ListenAndServe() error {
	for _, w := range s.workers {
		if err := w.Start(); err != nil {
			return err
		}
	}
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Printf("listening on %s", s.cfg.ListenAddr)
	if s.cfg.TLSEnabled {
		return s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	for _, w := range s.workers {
		w.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
