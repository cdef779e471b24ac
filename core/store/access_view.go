package store

import (
	"context"

	"sapsan-irt/core/rbac"
)

// AccessView joins the membership and platform-manager lookups into the
// single capability the rbac guard consumes, so tests can substitute
// either side.
type AccessView struct {
	teams TeamsStore
	users UsersStore
}

func NewAccessView(teams TeamsStore, users UsersStore) *AccessView {
	return &AccessView{teams: teams, users: users}
}

func (v *AccessView) RoleOf(ctx context.Context, userID, teamID int64) (rbac.TeamRole, bool, error) {
	return v.teams.RoleOf(ctx, userID, teamID)
}

func (v *AccessView) IsPlatformManager(ctx context.Context, userID int64) (bool, error) {
	return v.users.IsPlatformManager(ctx, userID)
}
