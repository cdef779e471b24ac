package rbac

// Membership management runs in two tiers. A platform manager bypasses team
// roles entirely; a team admin acting without that flag is limited to
// members below admin rank and may never touch its own membership row.
//
// Every function here is a pure decision over values the caller already
// fetched; nothing reads storage.

// Actor is the caller as the membership rules see it: who they are, their
// role in the target team (zero value when not a member), and whether they
// hold the platform-manager flag.
type Actor struct {
	UserID          int64
	Role            TeamRole
	Member          bool
	PlatformManager bool
}

func (a Actor) authenticated() bool {
	return a.UserID != 0
}

// PermitMembershipManage is the caller-only prefix shared by the roster
// operations: whether actor may manage this team's membership at all.
// Handlers run it before looking up any target facts, so a caller who is
// not entitled to the roster learns nothing about who is on it.
func PermitMembershipManage(actor Actor) Decision {
	if !actor.authenticated() {
		return Deny(DenyAuthenticationRequired)
	}
	if actor.PlatformManager {
		return Allow()
	}
	if !actor.Member {
		return Deny(DenyNotATeamMember)
	}
	if actor.Role != RoleAdmin {
		return Deny(DenyInsufficientRole)
	}
	return Allow()
}

// PermitMemberAdd decides whether actor may add target to a team with the
// given role.
func PermitMemberAdd(actor Actor, targetID int64, newRole TeamRole) Decision {
	if !actor.authenticated() {
		return Deny(DenyAuthenticationRequired)
	}
	if actor.PlatformManager {
		return Allow()
	}
	if !actor.Member {
		return Deny(DenyNotATeamMember)
	}
	if actor.Role != RoleAdmin {
		return Deny(DenyInsufficientRole)
	}
	// Team admins can hand out user and manager, never admin.
	if newRole == RoleAdmin {
		return Deny(DenyInsufficientRole)
	}
	return Allow()
}

// PermitMemberRoleChange decides whether actor may move target from its
// current role to newRole within a team.
func PermitMemberRoleChange(actor Actor, targetID int64, currentRole, newRole TeamRole) Decision {
	if !actor.authenticated() {
		return Deny(DenyAuthenticationRequired)
	}
	if actor.PlatformManager {
		return Allow()
	}
	if !actor.Member {
		return Deny(DenyNotATeamMember)
	}
	if actor.Role != RoleAdmin {
		return Deny(DenyInsufficientRole)
	}
	if actor.UserID == targetID {
		return Deny(DenySelfProtection)
	}
	if currentRole == RoleAdmin || newRole == RoleAdmin {
		return Deny(DenyInsufficientRole)
	}
	return Allow()
}

// PermitMemberRemove decides whether actor may remove target, currently
// holding currentRole, from a team.
func PermitMemberRemove(actor Actor, targetID int64, currentRole TeamRole) Decision {
	if !actor.authenticated() {
		return Deny(DenyAuthenticationRequired)
	}
	if actor.PlatformManager {
		return Allow()
	}
	if !actor.Member {
		return Deny(DenyNotATeamMember)
	}
	if actor.Role != RoleAdmin {
		return Deny(DenyInsufficientRole)
	}
	if actor.UserID == targetID {
		return Deny(DenySelfProtection)
	}
	if currentRole == RoleAdmin {
		return Deny(DenyInsufficientRole)
	}
	return Allow()
}

// PermitUserDelete covers platform-tier user account deletion. Deleting
// your own account is blocked so an administrator cannot lock the system
// out of itself.
func PermitUserDelete(actor Actor, targetID int64) Decision {
	if !actor.authenticated() {
		return Deny(DenyAuthenticationRequired)
	}
	if !actor.PlatformManager {
		return Deny(DenyInsufficientRole)
	}
	if actor.UserID == targetID {
		return Deny(DenySelfProtection)
	}
	return Allow()
}

// PermitUserManage covers platform-tier user account creation and updates.
func PermitUserManage(actor Actor) Decision {
	if !actor.authenticated() {
		return Deny(DenyAuthenticationRequired)
	}
	if !actor.PlatformManager {
		return Deny(DenyInsufficientRole)
	}
	return Allow()
}

// PermitPlatformManagerGrant decides whether actor may grant or revoke the
// platform-manager flag on target. Self-revocation is blocked for the same
// lockout reason as account self-deletion; self-grant is a no-op the
// handler short-circuits, so only revoke carries the guard here.
func PermitPlatformManagerGrant(actor Actor, targetID int64, grant bool) Decision {
	if !actor.authenticated() {
		return Deny(DenyAuthenticationRequired)
	}
	if !actor.PlatformManager {
		return Deny(DenyInsufficientRole)
	}
	if !grant && actor.UserID == targetID {
		return Deny(DenySelfProtection)
	}
	return Allow()
}
