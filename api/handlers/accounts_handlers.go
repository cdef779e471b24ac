package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sapsan-irt/config"
	"sapsan-irt/core/auth"
	"sapsan-irt/core/rbac"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

type AccountsHandler struct {
	cfg      *config.AppConfig
	users    store.UsersStore
	sessions store.SessionStore
	guard    *rbac.Guard
	audits   store.AuditStore
	logger   *utils.Logger
}

func NewAccountsHandler(cfg *config.AppConfig, users store.UsersStore, sessions store.SessionStore, guard *rbac.Guard, audits store.AuditStore, logger *utils.Logger) *AccountsHandler {
	return &AccountsHandler{cfg: cfg, users: users, sessions: sessions, guard: guard, audits: audits, logger: logger}
}

func (h *AccountsHandler) actor(r *http.Request) (rbac.Actor, *store.SessionRecord, error) {
	sr := sessionFromContext(r)
	if sr == nil {
		return rbac.Actor{}, nil, nil
	}
	actor, err := h.guard.Resolve(r.Context(), sr.UserID, 0)
	return actor, sr, err
}

type userPayload struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(users))
	for i := range users {
		out = append(out, userDTO(&users[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	pm, _ := h.users.IsPlatformManager(r.Context(), user.ID)
	out := userDTO(user)
	out["platform_manager"] = pm
	writeJSON(w, http.StatusOK, map[string]any{"user": out})
}

func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, sr, err := h.actor(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if !respondDecision(w, rbac.PermitUserManage(actor)) {
		return
	}
	var payload userPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	payload.Username = strings.ToLower(strings.TrimSpace(payload.Username))
	if err := utils.ValidateUsername(payload.Username); err != nil {
		writeError(w, http.StatusBadRequest, "invalid username")
		return
	}
	salt, err := utils.RandString(16)
	if err != nil {
		respondError(w, err)
		return
	}
	hash, err := auth.HashPassword(payload.Password, salt, h.cfg.Pepper)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := &store.User{
		Username:     payload.Username,
		FullName:     payload.FullName,
		Email:        payload.Email,
		PasswordHash: hash,
		Salt:         salt,
		Active:       payload.Active == nil || *payload.Active,
	}
	if _, err := h.users.Create(r.Context(), user); err != nil {
		respondError(w, err)
		return
	}
	h.audits.Log(r.Context(), sr.Username, "accounts.create", "user "+user.Username)
	writeJSON(w, http.StatusCreated, map[string]any{"user": userDTO(user)})
}

func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, sr, err := h.actor(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if !respondDecision(w, rbac.PermitUserManage(actor)) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var payload userPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if payload.FullName != "" {
		user.FullName = payload.FullName
	}
	if payload.Email != "" {
		user.Email = payload.Email
	}
	if payload.Active != nil {
		user.Active = *payload.Active
	}
	if payload.Password != "" {
		salt, err := utils.RandString(16)
		if err != nil {
			respondError(w, err)
			return
		}
		hash, err := auth.HashPassword(payload.Password, salt, h.cfg.Pepper)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user.Salt = salt
		user.PasswordHash = hash
	}
	if err := h.users.Update(r.Context(), user); err != nil {
		respondError(w, err)
		return
	}
	if !user.Active || payload.Password != "" {
		_ = h.sessions.DeleteAllForUser(r.Context(), user.ID)
	}
	h.audits.Log(r.Context(), sr.Username, "accounts.update", "user "+user.Username)
	writeJSON(w, http.StatusOK, map[string]any{"user": userDTO(user)})
}

func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, sr, err := h.actor(r)
	if err != nil {
		respondError(w, err)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !respondDecision(w, rbac.PermitUserDelete(actor, id)) {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	_ = h.sessions.DeleteAllForUser(r.Context(), id)
	h.audits.Log(r.Context(), sr.Username, "accounts.delete", "user id "+itoa(id))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SetPlatformManager grants or revokes the platform tier. Granting to
// yourself is already a no-op; revoking from yourself is refused so the
// platform never loses its last operator by accident.
func (h *AccountsHandler) SetPlatformManager(w http.ResponseWriter, r *http.Request) {
	actor, sr, err := h.actor(r)
	if err != nil {
		respondError(w, err)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var payload struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if !respondDecision(w, rbac.PermitPlatformManagerGrant(actor, id, payload.Enabled)) {
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.users.SetPlatformManager(r.Context(), id, actor.UserID, payload.Enabled); err != nil {
		respondError(w, err)
		return
	}
	verb := "revoke"
	if payload.Enabled {
		verb = "grant"
	}
	h.audits.Log(r.Context(), sr.Username, "accounts.platform_manager", verb+" user "+user.Username)
	writeJSON(w, http.StatusOK, map[string]any{"user_id": id, "platform_manager": payload.Enabled})
}
