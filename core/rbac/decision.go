package rbac

// DenyReason distinguishes why a request was refused so the transport
// layer can pick the right status and message without re-deriving the
// membership state.
type DenyReason string

const (
	DenyAuthenticationRequired DenyReason = "authentication_required"
	DenyNotATeamMember         DenyReason = "not_a_team_member"
	DenyInsufficientRole       DenyReason = "insufficient_role"
	DenyOwnershipRequired      DenyReason = "ownership_required"
	DenySelfProtection         DenyReason = "self_protection"
)

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// DenyError lets service code surface a decision through an error return.
type DenyError struct {
	Reason DenyReason
}

func (e *DenyError) Error() string {
	return "denied: " + string(e.Reason)
}

func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DenyError{Reason: d.Reason}
}
