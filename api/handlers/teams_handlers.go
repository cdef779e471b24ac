package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sapsan-irt/core/rbac"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

type TeamsHandler struct {
	teams  store.TeamsStore
	users  store.UsersStore
	guard  *rbac.Guard
	audits store.AuditStore
	logger *utils.Logger
}

func NewTeamsHandler(teams store.TeamsStore, users store.UsersStore, guard *rbac.Guard, audits store.AuditStore, logger *utils.Logger) *TeamsHandler {
	return &TeamsHandler{teams: teams, users: users, guard: guard, audits: audits, logger: logger}
}

func (h *TeamsHandler) List(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	if sr == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	pm, err := h.guard.IsPlatformManager(r.Context(), sr.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	var teams []store.Team
	if pm {
		teams, err = h.teams.ListTeams(r.Context())
	} else {
		teams, err = h.teams.ListTeamsForUser(r.Context(), sr.UserID)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

// Create opens a new team. Team creation is a platform operation; the
// first admin is then added through the members endpoint.
func (h *TeamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	if sr == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	actor, err := h.guard.Resolve(r.Context(), sr.UserID, 0)
	if err != nil {
		respondError(w, err)
		return
	}
	if !respondDecision(w, rbac.PermitUserManage(actor)) {
		return
	}
	team := &store.Team{Name: payload.Name, CreatedBy: sr.UserID}
	if _, err := h.teams.CreateTeam(r.Context(), team); err != nil {
		respondError(w, err)
		return
	}
	h.audits.Log(r.Context(), sr.Username, "teams.create", "team "+team.Name)
	writeJSON(w, http.StatusCreated, map[string]any{"team": team})
}

func (h *TeamsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	teamID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	if sr == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !h.requireMembershipOrPlatform(w, r, sr.UserID, teamID) {
		return
	}
	team, err := h.teams.GetTeam(r.Context(), teamID)
	if err != nil {
		respondError(w, err)
		return
	}
	if team == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": team})
}

func (h *TeamsHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	teamID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	if sr == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !h.requireMembershipOrPlatform(w, r, sr.UserID, teamID) {
		return
	}
	members, err := h.teams.ListMembers(r.Context(), teamID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *TeamsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	teamID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	var payload struct {
		UserID int64  `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	role, err := rbac.ParseTeamRole(payload.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	var callerID int64
	if sr != nil {
		callerID = sr.UserID
	}
	actor, err := h.guard.Resolve(r.Context(), callerID, teamID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !respondDecision(w, rbac.PermitMemberAdd(actor, payload.UserID, role)) {
		return
	}
	target, err := h.users.Get(r.Context(), payload.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	member := &store.TeamMember{TeamID: teamID, UserID: payload.UserID, Role: role, AddedBy: callerID}
	if err := h.teams.AddMember(r.Context(), member); err != nil {
		respondError(w, err)
		return
	}
	h.audits.Log(r.Context(), sr.Username, "teams.member_add", "user "+target.Username+" as "+string(role))
	writeJSON(w, http.StatusCreated, map[string]any{"member": member})
}

func (h *TeamsHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	teamID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	targetID, ok := pathID(r, "user_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var payload struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	newRole, err := rbac.ParseTeamRole(payload.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	var callerID int64
	if sr != nil {
		callerID = sr.UserID
	}
	actor, err := h.guard.Resolve(r.Context(), callerID, teamID)
	if err != nil {
		respondError(w, err)
		return
	}
	// Authorize the caller before touching the target's membership row, so
	// an outsider cannot tell a member's 404 apart from a non-member's.
	if !respondDecision(w, rbac.PermitMembershipManage(actor)) {
		return
	}
	currentRole, member, err := h.teams.RoleOf(r.Context(), targetID, teamID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !member {
		writeError(w, http.StatusNotFound, "not a member")
		return
	}
	if !respondDecision(w, rbac.PermitMemberRoleChange(actor, targetID, currentRole, newRole)) {
		return
	}
	if err := h.teams.UpdateMemberRole(r.Context(), teamID, targetID, newRole); err != nil {
		respondError(w, err)
		return
	}
	h.audits.Log(r.Context(), sr.Username, "teams.member_role", "user id "+itoa(targetID)+" -> "+string(newRole))
	writeJSON(w, http.StatusOK, map[string]any{"user_id": targetID, "role": newRole})
}

func (h *TeamsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	teamID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	targetID, ok := pathID(r, "user_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var callerID int64
	if sr != nil {
		callerID = sr.UserID
	}
	actor, err := h.guard.Resolve(r.Context(), callerID, teamID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !respondDecision(w, rbac.PermitMembershipManage(actor)) {
		return
	}
	currentRole, member, err := h.teams.RoleOf(r.Context(), targetID, teamID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !member {
		writeError(w, http.StatusNotFound, "not a member")
		return
	}
	if !respondDecision(w, rbac.PermitMemberRemove(actor, targetID, currentRole)) {
		return
	}
	if err := h.teams.RemoveMember(r.Context(), teamID, targetID); err != nil {
		respondError(w, err)
		return
	}
	h.audits.Log(r.Context(), sr.Username, "teams.member_remove", "user id "+itoa(targetID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *TeamsHandler) requireMembershipOrPlatform(w http.ResponseWriter, r *http.Request, userID, teamID int64) bool {
	pm, err := h.guard.IsPlatformManager(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return false
	}
	if pm {
		return true
	}
	decision, err := h.guard.RequireTeamMembership(r.Context(), userID, teamID)
	if err != nil {
		respondError(w, err)
		return false
	}
	return respondDecision(w, decision)
}
