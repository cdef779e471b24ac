package api

import (
	"os"
	"regexp"
	"strings"
	"testing"
)

// Every registered route must run behind a session guard. Login is the
// single exception and carries the rate limiter instead.
func TestEveryRouteIsGuarded(t *testing.T) {
	src, err := os.ReadFile("routes.go")
	if err != nil {
		t.Fatalf("read routes.go: %v", err)
	}
	routeLine := regexp.MustCompile(`r\.(Get|Post|Put|Delete|Patch)\(`)
	for i, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimSpace(line)
		if !routeLine.MatchString(trimmed) {
			continue
		}
		if strings.Contains(trimmed, "/login") {
			if !strings.Contains(trimmed, "rateLimitMiddleware") {
				t.Errorf("line %d: login route must be rate limited: %s", i+1, trimmed)
			}
			continue
		}
		if !strings.Contains(trimmed, "s.guarded(") && !strings.Contains(trimmed, "s.withSession(") {
			t.Errorf("line %d: unguarded route: %s", i+1, trimmed)
		}
	}
}
