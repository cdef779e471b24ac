package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"sapsan-irt/core/incidents"
	"sapsan-irt/core/rbac"
	"sapsan-irt/core/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps core errors onto HTTP statuses. Deny reasons other than
// a missing identity are all 403; the reason string rides along so clients
// can phrase the refusal.
func respondError(w http.ResponseWriter, err error) {
	var ve *incidents.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Msg)
		return
	}
	var de *rbac.DenyError
	if errors.As(err, &de) {
		status := http.StatusForbidden
		if de.Reason == rbac.DenyAuthenticationRequired {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]string{"error": "denied", "reason": string(de.Reason)})
		return
	}
	switch {
	case errors.Is(err, incidents.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "version conflict")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

func respondDecision(w http.ResponseWriter, d rbac.Decision) bool {
	if d.Allowed {
		return true
	}
	respondError(w, d.Err())
	return false
}
