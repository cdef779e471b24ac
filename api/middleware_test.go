package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sapsan-irt/config"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

type stubSessionStore struct {
	rec *store.SessionRecord
}

func (s *stubSessionStore) SaveSession(ctx context.Context, sess *store.SessionRecord) error {
	return nil
}

func (s *stubSessionStore) GetSession(ctx context.Context, id string) (*store.SessionRecord, error) {
	if s.rec != nil && s.rec.ID == id {
		return s.rec, nil
	}
	return nil, nil
}

func (s *stubSessionStore) DeleteSession(ctx context.Context, id string) error       { return nil }
func (s *stubSessionStore) DeleteAllForUser(ctx context.Context, userID int64) error { return nil }

func (s *stubSessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *stubSessionStore) UpdateActivity(ctx context.Context, id string, now time.Time, extendBy time.Duration) error {
	return nil
}

type stubUsersStore struct {
	user *store.User
}

func (s *stubUsersStore) Create(ctx context.Context, user *store.User) (int64, error) { return 0, nil }
func (s *stubUsersStore) Update(ctx context.Context, user *store.User) error          { return nil }
func (s *stubUsersStore) Delete(ctx context.Context, id int64) error                  { return nil }

func (s *stubUsersStore) Get(ctx context.Context, id int64) (*store.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubUsersStore) FindByUsername(ctx context.Context, username string) (*store.User, error) {
	return nil, nil
}

func (s *stubUsersStore) List(ctx context.Context) ([]store.User, error) { return nil, nil }

func (s *stubUsersStore) IsPlatformManager(ctx context.Context, userID int64) (bool, error) {
	return false, nil
}

func (s *stubUsersStore) SetPlatformManager(ctx context.Context, userID, grantedBy int64, grant bool) error {
	return nil
}

func (s *stubUsersStore) ListPlatformManagers(ctx context.Context) ([]int64, error) { return nil, nil }

// The session rides a downstream context that the access log never sees, so
// withSession stamps the username straight onto the recorder.
func TestSessionMiddlewareStampsRecorderUser(t *testing.T) {
	now := time.Now().UTC()
	s := &Server{
		cfg:    &config.AppConfig{},
		logger: utils.NewLogger(),
		users:  &stubUsersStore{user: &store.User{ID: 7, Username: "dara", Active: true}},
		sessions: &stubSessionStore{rec: &store.SessionRecord{
			ID: "sess-1", UserID: 7, Username: "dara", ExpiresAt: now.Add(time.Hour),
		}},
		activityTracker: newSessionActivity(),
	}

	var called bool
	handler := s.withSession(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, user: "-"}
	req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sess-1"})
	handler(rec, req)

	if !called {
		t.Fatalf("handler not reached")
	}
	if rec.user != "dara" {
		t.Fatalf("recorder user = %q", rec.user)
	}
}

func TestSessionMiddlewareLeavesAnonymousRecorder(t *testing.T) {
	s := &Server{
		cfg:             &config.AppConfig{},
		logger:          utils.NewLogger(),
		users:           &stubUsersStore{},
		sessions:        &stubSessionStore{},
		activityTracker: newSessionActivity(),
	}

	handler := s.withSession(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler reached without a session")
	})

	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, user: "-"}
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/teams", nil))

	if rec.user != "-" {
		t.Fatalf("recorder user = %q", rec.user)
	}
}
