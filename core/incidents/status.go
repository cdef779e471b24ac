package incidents

import (
	"fmt"
	"strings"
)

// Status is the incident lifecycle state. Any state may move to any other
// state, including back to pending; the set itself is closed.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusEscalated   Status = "escalated"
	StatusResolved    Status = "resolved"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusUnderReview, StatusEscalated, StatusResolved:
		return s, nil
	default:
		return "", fmt.Errorf("unknown incident status %q", raw)
	}
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}
