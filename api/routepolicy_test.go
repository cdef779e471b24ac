package api

import (
	"net/http"
	"testing"
)

func TestRoutePolicyTiers(t *testing.T) {
	policy, err := NewRoutePolicy()
	if err != nil {
		t.Fatalf("build policy: %v", err)
	}
	cases := []struct {
		subject string
		path    string
		method  string
		want    bool
	}{
		{subjectMember, "/api/teams", http.MethodGet, true},
		{subjectMember, "/api/teams/4/incidents", http.MethodPost, true},
		{subjectMember, "/api/teams/4/members/7", http.MethodDelete, true},
		{subjectMember, "/api/accounts/users", http.MethodGet, true},
		{subjectMember, "/api/accounts/users", http.MethodPost, false},
		{subjectMember, "/api/accounts/users/3", http.MethodGet, false},
		{subjectMember, "/api/accounts/users/3/platform-manager", http.MethodPut, false},
		{subjectPlatformManager, "/api/accounts/users", http.MethodPost, true},
		{subjectPlatformManager, "/api/accounts/users/3/platform-manager", http.MethodPut, true},
		{subjectPlatformManager, "/api/teams/4/incidents", http.MethodGet, true},
	}
	for _, tc := range cases {
		if got := policy.Allowed(tc.subject, tc.path, tc.method); got != tc.want {
			t.Errorf("Allowed(%s, %s %s) = %v, want %v", tc.subject, tc.method, tc.path, got, tc.want)
		}
	}
}
