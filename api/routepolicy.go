package api

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// The route policy is a coarse first gate over URL areas. It only decides
// which tier of caller may enter an area at all; the per-team and per-incident
// rules run afterwards in the core packages.
const routePolicyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

const (
	subjectMember          = "member"
	subjectPlatformManager = "platform_manager"
)

type RoutePolicy struct {
	enforcer *casbin.Enforcer
}

func NewRoutePolicy() (*RoutePolicy, error) {
	m, err := model.NewModelFromString(routePolicyModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	rules := [][]string{
		{subjectMember, "/api/auth/*", "*"},
		{subjectMember, "/api/teams", "*"},
		{subjectMember, "/api/teams/*", "*"},
		{subjectMember, "/api/accounts/users", "GET"},
		{subjectPlatformManager, "/api/accounts/*", "*"},
	}
	for _, rule := range rules {
		if _, err := e.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
			return nil, err
		}
	}
	if _, err := e.AddGroupingPolicy(subjectPlatformManager, subjectMember); err != nil {
		return nil, err
	}
	return &RoutePolicy{enforcer: e}, nil
}

func (p *RoutePolicy) Allowed(subject, path, method string) bool {
	ok, err := p.enforcer.Enforce(subject, path, method)
	return err == nil && ok
}
