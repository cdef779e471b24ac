package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sapsan-irt/config"
	"sapsan-irt/core/auth"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

const (
	SessionCookieName = "sapsan_session"
	CSRFCookieName    = "sapsan_csrf"
)

type AuthHandler struct {
	cfg            *config.AppConfig
	users          store.UsersStore
	sessionManager *auth.SessionManager
	audits         store.AuditStore
	logger         *utils.Logger
}

func NewAuthHandler(cfg *config.AppConfig, users store.UsersStore, sm *auth.SessionManager, audits store.AuditStore, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users, sessionManager: sm, audits: audits, logger: logger}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var cred auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	cred.Username = strings.ToLower(strings.TrimSpace(cred.Username))
	if err := utils.ValidateUsername(cred.Username); err != nil {
		writeError(w, http.StatusBadRequest, "invalid username")
		return
	}
	user, err := h.users.FindByUsername(r.Context(), cred.Username)
	if err != nil || user == nil || !user.Active {
		h.audits.Log(r.Context(), cred.Username, "auth.login_failed", "user missing or inactive")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !auth.VerifyPassword(cred.Password, user.Salt, h.cfg.Pepper, user.PasswordHash) {
		h.audits.Log(r.Context(), cred.Username, "auth.login_failed", "invalid password")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	sess, err := h.sessionManager.Create(r.Context(), user, clientIP(r), r.UserAgent())
	if err != nil {
		h.logger.Errorf("login session create failed for %s: %v", cred.Username, err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	h.audits.Log(r.Context(), user.Username, "auth.login_success", "")
	secure := r.TLS != nil || h.cfg.TLSEnabled
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    sess.CSRFToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userDTO(user),
		"csrf": sess.CSRFToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	if sr != nil {
		_ = h.sessionManager.Delete(r.Context(), sr.ID)
		h.audits.Log(r.Context(), sr.Username, "auth.logout", "")
	}
	expire := http.Cookie{Name: SessionCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true}
	http.SetCookie(w, &expire)
	http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sr := sessionFromContext(r)
	if sr == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.Get(r.Context(), sr.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	pm, _ := h.users.IsPlatformManager(r.Context(), user.ID)
	out := userDTO(user)
	out["platform_manager"] = pm
	writeJSON(w, http.StatusOK, map[string]any{"user": out})
}

func sessionFromContext(r *http.Request) *store.SessionRecord {
	v := r.Context().Value(auth.SessionContextKey)
	if v == nil {
		return nil
	}
	return v.(*store.SessionRecord)
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

func userDTO(u *store.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"username":  u.Username,
		"full_name": u.FullName,
		"email":     u.Email,
		"active":    u.Active,
	}
}
