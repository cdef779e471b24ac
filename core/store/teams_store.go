package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"sapsan-irt/core/rbac"
)

type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TeamMember struct {
	TeamID    int64         `json:"team_id"`
	UserID    int64         `json:"user_id"`
	Role      rbac.TeamRole `json:"role"`
	AddedBy   int64         `json:"added_by"`
	AddedAt   time.Time     `json:"added_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Username  string        `json:"username,omitempty"`
	FullName  string        `json:"full_name,omitempty"`
}

type TeamsStore interface {
	CreateTeam(ctx context.Context, team *Team) (int64, error)
	GetTeam(ctx context.Context, id int64) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	ListTeamsForUser(ctx context.Context, userID int64) ([]Team, error)

	AddMember(ctx context.Context, m *TeamMember) error
	UpdateMemberRole(ctx context.Context, teamID, userID int64, role rbac.TeamRole) error
	RemoveMember(ctx context.Context, teamID, userID int64) error
	RoleOf(ctx context.Context, userID, teamID int64) (rbac.TeamRole, bool, error)
	ListMembers(ctx context.Context, teamID int64) ([]TeamMember, error)
}

type teamsStore struct {
	db *DB
}

func NewTeamsStore(db *DB) TeamsStore {
	return &teamsStore{db: db}
}

func (s *teamsStore) CreateTeam(ctx context.Context, team *Team) (int64, error) {
	now := time.Now().UTC()
	id, err := s.db.insertID(ctx, `
		INSERT INTO teams(name, created_by, created_at, updated_at) VALUES(?,?,?,?)`,
		strings.TrimSpace(team.Name), team.CreatedBy, now, now)
	if err != nil {
		return 0, translateConstraint(err)
	}
	team.ID = id
	team.CreatedAt = now
	team.UpdatedAt = now
	return id, nil
}

func (s *teamsStore) GetTeam(ctx context.Context, id int64) (*Team, error) {
	row := s.db.queryRow(ctx, `SELECT id, name, created_by, created_at, updated_at FROM teams WHERE id=?`, id)
	var t Team
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *teamsStore) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.query(ctx, `SELECT id, name, created_by, created_at, updated_at FROM teams ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

func (s *teamsStore) ListTeamsForUser(ctx context.Context, userID int64) ([]Team, error) {
	rows, err := s.db.query(ctx, `
		SELECT t.id, t.name, t.created_by, t.created_at, t.updated_at
		FROM teams t JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id=? ORDER BY t.name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

func (s *teamsStore) AddMember(ctx context.Context, m *TeamMember) error {
	if !m.Role.Valid() {
		return errors.New("invalid team role")
	}
	now := time.Now().UTC()
	_, err := s.db.exec(ctx, `
		INSERT INTO team_members(team_id, user_id, role, added_by, added_at, updated_at)
		VALUES(?,?,?,?,?,?)`,
		m.TeamID, m.UserID, string(m.Role), m.AddedBy, now, now)
	if err != nil {
		// The (team_id, user_id) primary key turns a repeat add into a
		// duplicate, not a server fault.
		return translateConstraint(err)
	}
	m.AddedAt = now
	m.UpdatedAt = now
	return nil
}

func (s *teamsStore) UpdateMemberRole(ctx context.Context, teamID, userID int64, role rbac.TeamRole) error {
	if !role.Valid() {
		return errors.New("invalid team role")
	}
	res, err := s.db.exec(ctx, `
		UPDATE team_members SET role=?, updated_at=? WHERE team_id=? AND user_id=?`,
		string(role), time.Now().UTC(), teamID, userID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *teamsStore) RemoveMember(ctx context.Context, teamID, userID int64) error {
	res, err := s.db.exec(ctx, `DELETE FROM team_members WHERE team_id=? AND user_id=?`, teamID, userID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RoleOf resolves the unique membership row; absence is a normal outcome,
// not an error.
func (s *teamsStore) RoleOf(ctx context.Context, userID, teamID int64) (rbac.TeamRole, bool, error) {
	var raw string
	err := s.db.queryRow(ctx, `SELECT role FROM team_members WHERE team_id=? AND user_id=?`, teamID, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	role, err := rbac.ParseTeamRole(raw)
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

func (s *teamsStore) ListMembers(ctx context.Context, teamID int64) ([]TeamMember, error) {
	rows, err := s.db.query(ctx, `
		SELECT m.team_id, m.user_id, m.role, m.added_by, m.added_at, m.updated_at, u.username, u.full_name
		FROM team_members m JOIN users u ON u.id = m.user_id
		WHERE m.team_id=? ORDER BY u.username ASC`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []TeamMember
	for rows.Next() {
		var m TeamMember
		var raw string
		if err := rows.Scan(&m.TeamID, &m.UserID, &raw, &m.AddedBy, &m.AddedAt, &m.UpdatedAt, &m.Username, &m.FullName); err != nil {
			return nil, err
		}
		role, err := rbac.ParseTeamRole(raw)
		if err != nil {
			return nil, err
		}
		m.Role = role
		res = append(res, m)
	}
	return res, rows.Err()
}

func scanTeams(rows *sql.Rows) ([]Team, error) {
	var res []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
