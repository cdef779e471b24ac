package rbac

import (
	"fmt"
	"strings"
)

// TeamRole is a member's standing within one team. The set is closed:
// anything that is not one of the three constants is rejected at the
// boundary by ParseTeamRole.
type TeamRole string

const (
	RoleUser    TeamRole = "user"
	RoleManager TeamRole = "manager"
	RoleAdmin   TeamRole = "admin"
)

func ParseTeamRole(raw string) (TeamRole, error) {
	switch TeamRole(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown team role %q", raw)
}

func (r TeamRole) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Elevated reports whether the role is manager or admin. Title and
// description edits key off this rather than re-deriving it from the
// assign permission, so the matrix can evolve without changing edit
// semantics by accident.
func (r TeamRole) Elevated() bool {
	return r == RoleManager || r == RoleAdmin
}
