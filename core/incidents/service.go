package incidents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sapsan-irt/core/rbac"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

var ErrNotFound = errors.New("incident not found")

const maxTitleLen = 200

// ValidationError reports malformed input. It is checked before any
// permission lookup so a caller probing with garbage learns nothing about
// membership or roles.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Identity is the acting caller as the service needs it. Username only
// feeds the audit trail.
type Identity struct {
	ID       int64
	Username string
}

type Service struct {
	incidents store.IncidentsStore
	guard     *rbac.Guard
	audits    store.AuditStore
	logger    *utils.Logger
}

func NewService(incidents store.IncidentsStore, guard *rbac.Guard, audits store.AuditStore, logger *utils.Logger) *Service {
	return &Service{incidents: incidents, guard: guard, audits: audits, logger: logger}
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return invalidf("title is required")
	}
	if len(title) > maxTitleLen {
		return invalidf("title exceeds %d characters", maxTitleLen)
	}
	return nil
}

func (s *Service) require(ctx context.Context, caller Identity, teamID int64, action rbac.Action, inc *rbac.IncidentRef) error {
	if caller.ID == 0 {
		return rbac.Deny(rbac.DenyAuthenticationRequired).Err()
	}
	role, member, err := s.guard.RoleOf(ctx, caller.ID, teamID)
	if err != nil {
		return err
	}
	if !member {
		return rbac.Deny(rbac.DenyNotATeamMember).Err()
	}
	if !rbac.Permit(role, action, inc, caller.ID) {
		return rbac.Deny(rbac.DenyInsufficientRole).Err()
	}
	return nil
}

// Report opens a new incident. It always starts pending and unassigned;
// assignment is a separate, separately guarded step.
func (s *Service) Report(ctx context.Context, caller Identity, teamID int64, title, description string) (*store.Incident, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := s.require(ctx, caller, teamID, rbac.ActionCreate, nil); err != nil {
		return nil, err
	}
	inc := &store.Incident{
		TeamID:      teamID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      string(StatusPending),
		ReportedBy:  caller.ID,
		UpdatedBy:   caller.ID,
	}
	if _, err := s.incidents.CreateIncident(ctx, inc); err != nil {
		return nil, err
	}
	s.audits.Log(ctx, caller.Username, "incident.create", fmt.Sprintf("incident %d in team %d: %s", inc.ID, teamID, inc.Title))
	return inc, nil
}

// Get returns one incident after the view check. A wrong team in the path
// reads as not found, not as a leak of the other team's incident.
func (s *Service) Get(ctx context.Context, caller Identity, teamID, incidentID int64) (*store.Incident, error) {
	if err := s.require(ctx, caller, teamID, rbac.ActionView, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, teamID, incidentID)
}

func (s *Service) List(ctx context.Context, caller Identity, teamID int64, filter store.IncidentFilter) ([]store.Incident, error) {
	if filter.Status != "" {
		if _, err := ParseStatus(filter.Status); err != nil {
			return nil, invalidf("unknown status filter %q", filter.Status)
		}
	}
	if err := s.require(ctx, caller, teamID, rbac.ActionView, nil); err != nil {
		return nil, err
	}
	return s.incidents.ListIncidents(ctx, teamID, filter)
}

// UpdateDetails rewrites title and description. This is reporter-or-elevated
// territory rather than a matrix action, so it has its own gate.
func (s *Service) UpdateDetails(ctx context.Context, caller Identity, teamID, incidentID int64, title, description string, expectedVersion int) (*store.Incident, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if caller.ID == 0 {
		return nil, rbac.Deny(rbac.DenyAuthenticationRequired).Err()
	}
	role, member, err := s.guard.RoleOf(ctx, caller.ID, teamID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, rbac.Deny(rbac.DenyNotATeamMember).Err()
	}
	inc, err := s.load(ctx, teamID, incidentID)
	if err != nil {
		return nil, err
	}
	if !rbac.PermitDetailEdit(role, caller.ID, refOf(inc)) {
		return nil, rbac.Deny(rbac.DenyOwnershipRequired).Err()
	}
	inc.Title = strings.TrimSpace(title)
	inc.Description = description
	inc.UpdatedBy = caller.ID
	if err := s.incidents.UpdateIncident(ctx, inc, expectedVersion); err != nil {
		return nil, err
	}
	s.audits.Log(ctx, caller.Username, "incident.update", fmt.Sprintf("incident %d details", inc.ID))
	return inc, nil
}

// ChangeStatus moves an incident to another lifecycle state. The target
// state is validated before any permission is consulted.
func (s *Service) ChangeStatus(ctx context.Context, caller Identity, teamID, incidentID int64, rawStatus string, expectedVersion int) (*store.Incident, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, invalidf("unknown status %q", rawStatus)
	}
	inc, err := s.guardedLoad(ctx, caller, teamID, incidentID, rbac.ActionEditStatus)
	if err != nil {
		return nil, err
	}
	inc.Status = string(status)
	inc.UpdatedBy = caller.ID
	if err := s.incidents.UpdateIncident(ctx, inc, expectedVersion); err != nil {
		return nil, err
	}
	s.audits.Log(ctx, caller.Username, "incident.status", fmt.Sprintf("incident %d -> %s", inc.ID, status))
	return inc, nil
}

// Reassign sets or clears the assignee. A nil assignee returns the incident
// to the unassigned pool.
func (s *Service) Reassign(ctx context.Context, caller Identity, teamID, incidentID int64, assignee *int64, expectedVersion int) (*store.Incident, error) {
	inc, err := s.guardedLoad(ctx, caller, teamID, incidentID, rbac.ActionAssign)
	if err != nil {
		return nil, err
	}
	inc.AssigneeUserID = assignee
	inc.UpdatedBy = caller.ID
	if err := s.incidents.UpdateIncident(ctx, inc, expectedVersion); err != nil {
		return nil, err
	}
	detail := fmt.Sprintf("incident %d unassigned", inc.ID)
	if assignee != nil {
		detail = fmt.Sprintf("incident %d assigned to user %d", inc.ID, *assignee)
	}
	s.audits.Log(ctx, caller.Username, "incident.assign", detail)
	return inc, nil
}

// guardedLoad fetches the incident first because the user-tier rules need
// its assignee, then runs the matrix check against it.
func (s *Service) guardedLoad(ctx context.Context, caller Identity, teamID, incidentID int64, action rbac.Action) (*store.Incident, error) {
	if caller.ID == 0 {
		return nil, rbac.Deny(rbac.DenyAuthenticationRequired).Err()
	}
	role, member, err := s.guard.RoleOf(ctx, caller.ID, teamID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, rbac.Deny(rbac.DenyNotATeamMember).Err()
	}
	inc, err := s.load(ctx, teamID, incidentID)
	if err != nil {
		return nil, err
	}
	ref := refOf(inc)
	if !rbac.Permit(role, action, &ref, caller.ID) {
		return nil, rbac.Deny(rbac.DenyInsufficientRole).Err()
	}
	return inc, nil
}

func (s *Service) load(ctx context.Context, teamID, incidentID int64) (*store.Incident, error) {
	inc, err := s.incidents.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if inc == nil || inc.TeamID != teamID {
		return nil, ErrNotFound
	}
	return inc, nil
}

func refOf(inc *store.Incident) rbac.IncidentRef {
	return rbac.IncidentRef{ReporterID: inc.ReportedBy, AssigneeID: inc.AssigneeUserID}
}
