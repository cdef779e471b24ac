package tests

import (
	"net/http"
	"strconv"
	"testing"

	"sapsan-irt/core/rbac"
)

func TestTeamAdminTierLimits(t *testing.T) {
	env := newTestEnv(t)
	pmID := env.createUser("root", true)
	adminID := env.createUser("team-admin", false)
	otherAdminID := env.createUser("other-admin", false)
	plainID := env.createUser("plain", false)
	teamID := env.createTeam("blue", pmID)
	env.addMember(teamID, adminID, rbac.RoleAdmin)
	env.addMember(teamID, otherAdminID, rbac.RoleAdmin)

	admin := env.login("team-admin")
	base := "/api/teams/" + itoa(teamID)

	// A team admin may add users and managers.
	status, _ := admin.do(http.MethodPost, base+"/members", map[string]any{"user_id": plainID, "role": "manager"})
	if status != http.StatusCreated {
		t.Fatalf("add manager: status %d", status)
	}

	// But never another admin.
	extraID := env.createUser("extra", false)
	status, body := admin.do(http.MethodPost, base+"/members", map[string]any{"user_id": extraID, "role": "admin"})
	if status != http.StatusForbidden {
		t.Fatalf("add admin: status %d", status)
	}
	if body["reason"] != string(rbac.DenyInsufficientRole) {
		t.Fatalf("add admin reason = %v", body["reason"])
	}

	// Existing admins are out of reach.
	status, _ = admin.do(http.MethodPut, base+"/members/"+itoa(otherAdminID), map[string]any{"role": "user"})
	if status != http.StatusForbidden {
		t.Fatalf("demote admin: status %d", status)
	}
	status, _ = admin.do(http.MethodDelete, base+"/members/"+itoa(otherAdminID), nil)
	if status != http.StatusForbidden {
		t.Fatalf("remove admin: status %d", status)
	}

	// So is the admin's own membership row.
	status, body = admin.do(http.MethodPut, base+"/members/"+itoa(adminID), map[string]any{"role": "manager"})
	if status != http.StatusForbidden {
		t.Fatalf("self role change: status %d", status)
	}
	if body["reason"] != string(rbac.DenySelfProtection) {
		t.Fatalf("self role change reason = %v", body["reason"])
	}
	status, _ = admin.do(http.MethodDelete, base+"/members/"+itoa(adminID), nil)
	if status != http.StatusForbidden {
		t.Fatalf("self remove: status %d", status)
	}
}

func TestPlatformManagerBypassesTeamTier(t *testing.T) {
	env := newTestEnv(t)
	pmID := env.createUser("root", true)
	adminID := env.createUser("team-admin", false)
	teamID := env.createTeam("blue", pmID)
	env.addMember(teamID, adminID, rbac.RoleAdmin)

	pm := env.login("root")
	base := "/api/teams/" + itoa(teamID)

	// The platform tier may seat admins without being a member itself.
	newAdminID := env.createUser("second-admin", false)
	status, _ := pm.do(http.MethodPost, base+"/members", map[string]any{"user_id": newAdminID, "role": "admin"})
	if status != http.StatusCreated {
		t.Fatalf("pm add admin: status %d", status)
	}

	// And may demote or remove them.
	status, _ = pm.do(http.MethodPut, base+"/members/"+itoa(adminID), map[string]any{"role": "user"})
	if status != http.StatusOK {
		t.Fatalf("pm demote admin: status %d", status)
	}
	status, _ = pm.do(http.MethodDelete, base+"/members/"+itoa(newAdminID), nil)
	if status != http.StatusOK {
		t.Fatalf("pm remove admin: status %d", status)
	}
}

func TestPlatformSelfProtections(t *testing.T) {
	env := newTestEnv(t)
	pmID := env.createUser("root", true)
	otherID := env.createUser("colleague", true)

	pm := env.login("root")

	// Revoking your own platform flag is refused.
	status, body := pm.do(http.MethodPut, "/api/accounts/users/"+itoa(pmID)+"/platform-manager", map[string]any{"enabled": false})
	if status != http.StatusForbidden {
		t.Fatalf("self revoke: status %d", status)
	}
	if body["reason"] != string(rbac.DenySelfProtection) {
		t.Fatalf("self revoke reason = %v", body["reason"])
	}

	// Deleting your own account is refused.
	status, _ = pm.do(http.MethodDelete, "/api/accounts/users/"+itoa(pmID), nil)
	if status != http.StatusForbidden {
		t.Fatalf("self delete: status %d", status)
	}

	// The same operations against another account go through.
	status, _ = pm.do(http.MethodPut, "/api/accounts/users/"+itoa(otherID)+"/platform-manager", map[string]any{"enabled": false})
	if status != http.StatusOK {
		t.Fatalf("revoke other: status %d", status)
	}
	status, _ = pm.do(http.MethodDelete, "/api/accounts/users/"+itoa(otherID), nil)
	if status != http.StatusOK {
		t.Fatalf("delete other: status %d", status)
	}
}

// Roster writes against a member and against a stranger must fail the same
// way for an unauthorized caller, otherwise the status code doubles as a
// membership lookup.
func TestRosterDeniesOutsiderUniformly(t *testing.T) {
	env := newTestEnv(t)
	pmID := env.createUser("root", true)
	memberID := env.createUser("blue-user", false)
	strayID := env.createUser("stray", false)
	env.createUser("outsider", false)
	teamID := env.createTeam("blue", pmID)
	env.addMember(teamID, memberID, rbac.RoleUser)

	outsider := env.login("outsider")
	base := "/api/teams/" + itoa(teamID) + "/members/"

	for _, targetID := range []int64{memberID, strayID} {
		status, body := outsider.do(http.MethodPut, base+itoa(targetID), map[string]any{"role": "manager"})
		if status != http.StatusForbidden {
			t.Fatalf("role change target %d: status %d", targetID, status)
		}
		if body["reason"] != string(rbac.DenyNotATeamMember) {
			t.Fatalf("role change target %d: reason %v", targetID, body["reason"])
		}
		status, body = outsider.do(http.MethodDelete, base+itoa(targetID), nil)
		if status != http.StatusForbidden {
			t.Fatalf("remove target %d: status %d", targetID, status)
		}
		if body["reason"] != string(rbac.DenyNotATeamMember) {
			t.Fatalf("remove target %d: reason %v", targetID, body["reason"])
		}
	}
}

func TestRepeatMemberAddConflicts(t *testing.T) {
	env := newTestEnv(t)
	pmID := env.createUser("root", true)
	plainID := env.createUser("plain", false)
	teamID := env.createTeam("blue", pmID)

	pm := env.login("root")
	base := "/api/teams/" + itoa(teamID) + "/members"

	status, _ := pm.do(http.MethodPost, base, map[string]any{"user_id": plainID, "role": "user"})
	if status != http.StatusCreated {
		t.Fatalf("first add: status %d", status)
	}
	status, body := pm.do(http.MethodPost, base, map[string]any{"user_id": plainID, "role": "manager"})
	if status != http.StatusConflict {
		t.Fatalf("second add: status %d body %v", status, body)
	}
}

func TestAccountAreaNeedsPlatformTier(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("root", true)
	env.createUser("plain", false)

	plain := env.login("plain")

	// Listing users is open to any authenticated account.
	status, _ := plain.do(http.MethodGet, "/api/accounts/users", nil)
	if status != http.StatusOK {
		t.Fatalf("list users: status %d", status)
	}

	// Mutations are not.
	status, _ = plain.do(http.MethodPost, "/api/accounts/users", map[string]any{"username": "sneak", "password": "longenough1"})
	if status != http.StatusForbidden {
		t.Fatalf("create user: status %d", status)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
