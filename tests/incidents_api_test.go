package tests

import (
	"net/http"
	"testing"

	"sapsan-irt/core/rbac"
)

func incidentFrom(t *testing.T, body map[string]any) (id int64, version int) {
	t.Helper()
	inc, ok := body["incident"].(map[string]any)
	if !ok {
		t.Fatalf("no incident in response: %v", body)
	}
	return int64(inc["id"].(float64)), int(inc["version"].(float64))
}

// A user reports an incident, cannot work it until a manager assigns it to
// them, and loses that ability again once it is reassigned.
func TestIncidentAssignmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	pmID := env.createUser("root", true)
	reporterID := env.createUser("reporter", false)
	colleagueID := env.createUser("colleague", false)
	managerID := env.createUser("manager", false)
	teamID := env.createTeam("blue", pmID)
	env.addMember(teamID, reporterID, rbac.RoleUser)
	env.addMember(teamID, colleagueID, rbac.RoleUser)
	env.addMember(teamID, managerID, rbac.RoleManager)

	reporter := env.login("reporter")
	manager := env.login("manager")
	base := "/api/teams/" + itoa(teamID) + "/incidents"

	status, body := reporter.do(http.MethodPost, base, map[string]any{"title": "suspicious login", "description": "from new ASN"})
	if status != http.StatusCreated {
		t.Fatalf("report: status %d", status)
	}
	incID, version := incidentFrom(t, body)
	inc := body["incident"].(map[string]any)
	if inc["status"] != "pending" {
		t.Fatalf("new incident status = %v", inc["status"])
	}
	if _, set := inc["assignee_user_id"]; set {
		t.Fatalf("new incident must be unassigned")
	}

	incPath := base + "/" + itoa(incID)

	// Unassigned user cannot move the status.
	status, body = reporter.do(http.MethodPut, incPath+"/status", map[string]any{"status": "under_review", "version": version})
	if status != http.StatusForbidden {
		t.Fatalf("premature status edit: status %d", status)
	}
	if body["reason"] != string(rbac.DenyInsufficientRole) {
		t.Fatalf("premature status edit reason = %v", body["reason"])
	}

	// Nor assign, not even to themselves.
	status, _ = reporter.do(http.MethodPut, incPath+"/assignee", map[string]any{"assignee_user_id": reporterID, "version": version})
	if status != http.StatusForbidden {
		t.Fatalf("self assign: status %d", status)
	}

	status, body = manager.do(http.MethodPut, incPath+"/assignee", map[string]any{"assignee_user_id": reporterID, "version": version})
	if status != http.StatusOK {
		t.Fatalf("manager assign: status %d", status)
	}
	_, version = incidentFrom(t, body)

	// Now the assignee works the incident.
	status, body = reporter.do(http.MethodPut, incPath+"/status", map[string]any{"status": "under_review", "version": version})
	if status != http.StatusOK {
		t.Fatalf("assignee status edit: status %d", status)
	}
	_, version = incidentFrom(t, body)

	status, body = manager.do(http.MethodPut, incPath+"/assignee", map[string]any{"assignee_user_id": colleagueID, "version": version})
	if status != http.StatusOK {
		t.Fatalf("reassign: status %d", status)
	}
	_, version = incidentFrom(t, body)

	// Reassignment revoked the reporter's grant.
	status, _ = reporter.do(http.MethodPut, incPath+"/status", map[string]any{"status": "resolved", "version": version})
	if status != http.StatusForbidden {
		t.Fatalf("revoked status edit: status %d", status)
	}
}

func TestIncidentDetailEditAndConflicts(t *testing.T) {
	env := newTestEnv(t)
	pmID := env.createUser("root", true)
	reporterID := env.createUser("reporter", false)
	colleagueID := env.createUser("colleague", false)
	managerID := env.createUser("manager", false)
	teamID := env.createTeam("blue", pmID)
	env.addMember(teamID, reporterID, rbac.RoleUser)
	env.addMember(teamID, colleagueID, rbac.RoleUser)
	env.addMember(teamID, managerID, rbac.RoleManager)

	reporter := env.login("reporter")
	colleague := env.login("colleague")
	manager := env.login("manager")
	base := "/api/teams/" + itoa(teamID) + "/incidents"

	status, body := reporter.do(http.MethodPost, base, map[string]any{"title": "draft title"})
	if status != http.StatusCreated {
		t.Fatalf("report: status %d", status)
	}
	incID, version := incidentFrom(t, body)
	incPath := base + "/" + itoa(incID)

	// The reporter keeps editing rights over the text.
	status, body = reporter.do(http.MethodPut, incPath, map[string]any{"title": "better title", "version": version})
	if status != http.StatusOK {
		t.Fatalf("reporter edit: status %d", status)
	}
	_, version = incidentFrom(t, body)

	// Another plain user does not get them.
	status, body = colleague.do(http.MethodPut, incPath, map[string]any{"title": "hijack", "version": version})
	if status != http.StatusForbidden {
		t.Fatalf("colleague edit: status %d", status)
	}
	if body["reason"] != string(rbac.DenyOwnershipRequired) {
		t.Fatalf("colleague edit reason = %v", body["reason"])
	}

	// An elevated role does.
	status, body = manager.do(http.MethodPut, incPath, map[string]any{"title": "manager title", "version": version})
	if status != http.StatusOK {
		t.Fatalf("manager edit: status %d", status)
	}
	_, version = incidentFrom(t, body)

	// A stale version is a conflict, not a silent overwrite.
	status, _ = manager.do(http.MethodPut, incPath, map[string]any{"title": "stale write", "version": version - 1})
	if status != http.StatusConflict {
		t.Fatalf("stale write: status %d", status)
	}

	// A malformed status is rejected before any permission verdict.
	status, _ = colleague.do(http.MethodPut, incPath+"/status", map[string]any{"status": "closed", "version": version})
	if status != http.StatusBadRequest {
		t.Fatalf("bad status: status %d", status)
	}
}

func TestIncidentsScopedToTeam(t *testing.T) {
	env := newTestEnv(t)
	pmID := env.createUser("root", true)
	insiderID := env.createUser("insider", false)
	outsiderID := env.createUser("outsider", false)
	blueID := env.createTeam("blue", pmID)
	redID := env.createTeam("red", pmID)
	env.addMember(blueID, insiderID, rbac.RoleUser)
	env.addMember(redID, outsiderID, rbac.RoleAdmin)

	insider := env.login("insider")
	outsider := env.login("outsider")
	base := "/api/teams/" + itoa(blueID) + "/incidents"

	status, body := insider.do(http.MethodPost, base, map[string]any{"title": "blue only"})
	if status != http.StatusCreated {
		t.Fatalf("report: status %d", status)
	}
	incID, _ := incidentFrom(t, body)

	// Membership in another team grants nothing here.
	status, body = outsider.do(http.MethodGet, base+"/"+itoa(incID), nil)
	if status != http.StatusForbidden {
		t.Fatalf("outsider read: status %d", status)
	}
	if body["reason"] != string(rbac.DenyNotATeamMember) {
		t.Fatalf("outsider reason = %v", body["reason"])
	}

	// Reaching the incident through the wrong team reads as missing.
	status, _ = outsider.do(http.MethodGet, "/api/teams/"+itoa(redID)+"/incidents/"+itoa(incID), nil)
	if status != http.StatusNotFound {
		t.Fatalf("cross-team read: status %d", status)
	}
}
