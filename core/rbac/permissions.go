package rbac

// Action is an operation on an incident. ActionDelete is declared for the
// admin row of the matrix but no delete operation is exposed anywhere; it
// stays here so the matrix is complete if one ever is.
type Action string

const (
	ActionCreate     Action = "incident.create"
	ActionView       Action = "incident.view"
	ActionEditStatus Action = "incident.edit_status"
	ActionAssign     Action = "incident.assign"
	ActionDelete     Action = "incident.delete"
)

// IncidentRef carries the two incident fields permission decisions consult.
type IncidentRef struct {
	ReporterID int64
	AssigneeID *int64
}

func (ref IncidentRef) assignedTo(userID int64) bool {
	return ref.AssigneeID != nil && *ref.AssigneeID == userID
}

// Permit evaluates the incident action matrix for a resolved team role.
// Precedence is top-down, first match wins: admin everything, manager
// everything but delete, then the per-action rules for plain users.
// inc may be nil for actions that do not target an existing incident.
func Permit(role TeamRole, action Action, inc *IncidentRef, callerID int64) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != ActionDelete
	case RoleUser:
		switch action {
		case ActionCreate, ActionView:
			return true
		case ActionEditStatus:
			return inc != nil && inc.assignedTo(callerID)
		}
		return false
	}
	return false
}

// PermitDetailEdit gates title and description changes: the original
// reporter may always edit, and so may any elevated role.
func PermitDetailEdit(role TeamRole, callerID int64, inc IncidentRef) bool {
	if callerID != 0 && callerID == inc.ReporterID {
		return true
	}
	return role.Elevated()
}
