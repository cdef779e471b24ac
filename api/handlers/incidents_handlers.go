package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"sapsan-irt/core/incidents"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

type IncidentsHandler struct {
	svc    *incidents.Service
	users  store.UsersStore
	logger *utils.Logger
}

func NewIncidentsHandler(svc *incidents.Service, users store.UsersStore, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{svc: svc, users: users, logger: logger}
}

func (h *IncidentsHandler) caller(r *http.Request) incidents.Identity {
	sr := sessionFromContext(r)
	if sr == nil {
		return incidents.Identity{}
	}
	return incidents.Identity{ID: sr.UserID, Username: sr.Username}
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	q := r.URL.Query()
	filter := store.IncidentFilter{
		Search: q.Get("q"),
		Status: q.Get("status"),
	}
	if raw := q.Get("assignee"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.AssignedUserID = id
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}
	list, err := h.svc.List(r.Context(), h.caller(r), teamID, filter)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"incidents": list})
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	inc, err := h.svc.Report(r.Context(), h.caller(r), teamID, payload.Title, payload.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"incident": inc})
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, incidentID, ok := incidentPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	inc, err := h.svc.Get(r.Context(), h.caller(r), teamID, incidentID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"incident": inc})
}

func (h *IncidentsHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	teamID, incidentID, ok := incidentPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Version     int    `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	inc, err := h.svc.UpdateDetails(r.Context(), h.caller(r), teamID, incidentID, payload.Title, payload.Description, payload.Version)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"incident": inc})
}

func (h *IncidentsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	teamID, incidentID, ok := incidentPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var payload struct {
		Status  string `json:"status"`
		Version int    `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	inc, err := h.svc.ChangeStatus(r.Context(), h.caller(r), teamID, incidentID, payload.Status, payload.Version)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"incident": inc})
}

// Reassign accepts a null assignee to return the incident to the pool.
func (h *IncidentsHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	teamID, incidentID, ok := incidentPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var payload struct {
		AssigneeUserID *int64 `json:"assignee_user_id"`
		Version        int    `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if payload.AssigneeUserID != nil {
		if *payload.AssigneeUserID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid assignee")
			return
		}
		// The assignee must be a real, active account. Team membership is
		// not required; cross-team responders are a normal case.
		target, err := h.users.Get(r.Context(), *payload.AssigneeUserID)
		if err != nil {
			respondError(w, err)
			return
		}
		if target == nil || !target.Active {
			writeError(w, http.StatusBadRequest, "unknown assignee")
			return
		}
	}
	inc, err := h.svc.Reassign(r.Context(), h.caller(r), teamID, incidentID, payload.AssigneeUserID, payload.Version)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"incident": inc})
}

func incidentPath(r *http.Request) (teamID, incidentID int64, ok bool) {
	teamID, ok = pathID(r, "id")
	if !ok {
		return 0, 0, false
	}
	incidentID, ok = pathID(r, "incident_id")
	return teamID, incidentID, ok
}
