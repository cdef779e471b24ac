package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"sapsan-irt/api"
	"sapsan-irt/api/handlers"
	"sapsan-irt/config"
	"sapsan-irt/core/auth"
	"sapsan-irt/core/incidents"
	"sapsan-irt/core/rbac"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

type testEnv struct {
	t      *testing.T
	cfg    *config.AppConfig
	users  store.UsersStore
	teams  store.TeamsStore
	guard  *rbac.Guard
	server *httptest.Server
}

type testClient struct {
	env     *testEnv
	session string
	csrf    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{
		DBPath: filepath.Join(dir, "sapsan.db"),
		Pepper: "test-pepper",
		Security: config.SecurityConfig{
			LoginRateCapacity:  100,
			LoginRateWindowSec: 60,
		},
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), cfg, db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	users := store.NewUsersStore(db)
	teams := store.NewTeamsStore(db)
	incidentsStore := store.NewIncidentsStore(db)
	sessions := store.NewSessionsStore(db)
	audits := store.NewAuditStore(db)
	guard := rbac.NewGuard(store.NewAccessView(teams, users))
	sessionManager := auth.NewSessionManager(sessions, cfg, logger)
	incidentsSvc := incidents.NewService(incidentsStore, guard, audits, logger)

	server, err := api.NewServer(cfg, api.ServerDeps{
		Users:          users,
		Teams:          teams,
		Incidents:      incidentsStore,
		Sessions:       sessions,
		Audits:         audits,
		Guard:          guard,
		SessionManager: sessionManager,
		IncidentsSvc:   incidentsSvc,
	}, logger)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)

	return &testEnv{t: t, cfg: cfg, users: users, teams: teams, guard: guard, server: ts}
}

const testPassword = "correct horse battery"

func (e *testEnv) createUser(username string, platformManager bool) int64 {
	e.t.Helper()
	ctx := context.Background()
	salt, err := utils.RandString(16)
	if err != nil {
		e.t.Fatalf("salt: %v", err)
	}
	hash, err := auth.HashPassword(testPassword, salt, e.cfg.Pepper)
	if err != nil {
		e.t.Fatalf("hash: %v", err)
	}
	id, err := e.users.Create(ctx, &store.User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		Active:       true,
	})
	if err != nil {
		e.t.Fatalf("create user %s: %v", username, err)
	}
	if platformManager {
		if err := e.users.SetPlatformManager(ctx, id, id, true); err != nil {
			e.t.Fatalf("grant platform manager: %v", err)
		}
	}
	return id
}

func (e *testEnv) createTeam(name string, createdBy int64) int64 {
	e.t.Helper()
	team := &store.Team{Name: name, CreatedBy: createdBy}
	id, err := e.teams.CreateTeam(context.Background(), team)
	if err != nil {
		e.t.Fatalf("create team %s: %v", name, err)
	}
	return id
}

func (e *testEnv) addMember(teamID, userID int64, role rbac.TeamRole) {
	e.t.Helper()
	err := e.teams.AddMember(context.Background(), &store.TeamMember{
		TeamID: teamID, UserID: userID, Role: role, AddedBy: userID,
	})
	if err != nil {
		e.t.Fatalf("add member: %v", err)
	}
}

func (e *testEnv) login(username string) *testClient {
	e.t.Helper()
	body, _ := json.Marshal(auth.Credentials{Username: username, Password: testPassword})
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		e.t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("login %s: status %d", username, resp.StatusCode)
	}
	client := &testClient{env: e}
	for _, c := range resp.Cookies() {
		switch c.Name {
		case handlers.SessionCookieName:
			client.session = c.Value
		case handlers.CSRFCookieName:
			client.csrf = c.Value
		}
	}
	if client.session == "" || client.csrf == "" {
		e.t.Fatalf("login %s: missing cookies", username)
	}
	return client
}

func (c *testClient) do(method, path string, payload any) (int, map[string]any) {
	c.env.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.env.server.URL+path, body)
	if err != nil {
		c.env.t.Fatalf("request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: handlers.SessionCookieName, Value: c.session})
	req.AddCookie(&http.Cookie{Name: handlers.CSRFCookieName, Value: c.csrf})
	if method != http.MethodGet {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.env.t.Fatalf("do %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}
