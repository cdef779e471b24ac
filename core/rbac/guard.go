package rbac

import "context"

// MembershipSource is the single lookup capability the guard needs. Both
// methods are read-only; the guard performs no other I/O and returns the
// same decision for the same snapshot.
type MembershipSource interface {
	RoleOf(ctx context.Context, userID, teamID int64) (TeamRole, bool, error)
	IsPlatformManager(ctx context.Context, userID int64) (bool, error)
}

// Guard combines the role resolver with the permission rules into the
// allow/deny verdicts the request layer consumes.
type Guard struct {
	src MembershipSource
}

func NewGuard(src MembershipSource) *Guard {
	return &Guard{src: src}
}

func (g *Guard) RoleOf(ctx context.Context, userID, teamID int64) (TeamRole, bool, error) {
	if userID == 0 {
		return "", false, nil
	}
	return g.src.RoleOf(ctx, userID, teamID)
}

func (g *Guard) IsPlatformManager(ctx context.Context, userID int64) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return g.src.IsPlatformManager(ctx, userID)
}

// RequireTeamMembership allows any role.
func (g *Guard) RequireTeamMembership(ctx context.Context, userID, teamID int64) (Decision, error) {
	return g.RequireTeamRole(ctx, userID, teamID, RoleUser, RoleManager, RoleAdmin)
}

// RequireTeamRole resolves the caller's role in the team and checks it
// against the allowed set. The deny reasons are distinct so callers can
// answer 401 for a missing identity, and phrase "not on this team" apart
// from "your role can't do this".
func (g *Guard) RequireTeamRole(ctx context.Context, userID, teamID int64, allowed ...TeamRole) (Decision, error) {
	if userID == 0 {
		return Deny(DenyAuthenticationRequired), nil
	}
	role, ok, err := g.src.RoleOf(ctx, userID, teamID)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Deny(DenyNotATeamMember), nil
	}
	for _, a := range allowed {
		if role == a {
			return Allow(), nil
		}
	}
	return Deny(DenyInsufficientRole), nil
}

// Resolve builds the Actor the membership rules take, folding the team
// role and the orthogonal platform-manager flag into one value.
func (g *Guard) Resolve(ctx context.Context, userID, teamID int64) (Actor, error) {
	actor := Actor{UserID: userID}
	if userID == 0 {
		return actor, nil
	}
	pm, err := g.src.IsPlatformManager(ctx, userID)
	if err != nil {
		return actor, err
	}
	actor.PlatformManager = pm
	if teamID != 0 {
		role, ok, err := g.src.RoleOf(ctx, userID, teamID)
		if err != nil {
			return actor, err
		}
		actor.Member = ok
		if ok {
			actor.Role = role
		}
	}
	return actor, nil
}
