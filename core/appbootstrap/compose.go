package appbootstrap

import (
	"context"

	"sapsan-irt/api"
	"sapsan-irt/config"
	"sapsan-irt/core/auth"
	"sapsan-irt/core/incidents"
	"sapsan-irt/core/rbac"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

func composeServer(cfg *config.AppConfig, db *store.DB, logger *utils.Logger) (*api.Server, error) {
	users := store.NewUsersStore(db)
	teams := store.NewTeamsStore(db)
	incidentsStore := store.NewIncidentsStore(db)
	sessions := store.NewSessionsStore(db)
	audits := store.NewAuditStore(db)

	guard := rbac.NewGuard(store.NewAccessView(teams, users))
	sessionManager := auth.NewSessionManager(sessions, cfg, logger)
	incidentsSvc := incidents.NewService(incidentsStore, guard, audits, logger)

	if err := ensureDefaultOperator(context.Background(), cfg, users, logger); err != nil {
		return nil, err
	}

	return api.NewServer(cfg, api.ServerDeps{
		Users:          users,
		Teams:          teams,
		Incidents:      incidentsStore,
		Sessions:       sessions,
		Audits:         audits,
		Guard:          guard,
		SessionManager: sessionManager,
		IncidentsSvc:   incidentsSvc,
	}, logger)
}

// ensureDefaultOperator seeds a platform-manager account into an empty
// database so a fresh install can be logged into at all. The generated
// password is printed once and never stored in the clear.
func ensureDefaultOperator(ctx context.Context, cfg *config.AppConfig, users store.UsersStore, logger *utils.Logger) error {
	existing, err := users.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	password, err := utils.RandString(18)
	if err != nil {
		return err
	}
	salt, err := utils.RandString(16)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, salt, cfg.Pepper)
	if err != nil {
		return err
	}
	user := &store.User{
		Username:     "admin",
		FullName:     "Default Operator",
		PasswordHash: hash,
		Salt:         salt,
		Active:       true,
	}
	id, err := users.Create(ctx, user)
	if err != nil {
		return err
	}
	if err := users.SetPlatformManager(ctx, id, id, true); err != nil {
		return err
	}
	logger.Printf("created default operator %q with password %s", user.Username, password)
	return nil
}
