package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrConflict = errors.New("conflict")

type Incident struct {
	ID             int64     `json:"id"`
	TeamID         int64     `json:"team_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Status         string    `json:"status"`
	ReportedBy     int64     `json:"reported_by"`
	AssigneeUserID *int64    `json:"assignee_user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UpdatedBy      int64     `json:"updated_by"`
	Version        int       `json:"version"`
}

type IncidentFilter struct {
	Search         string
	Status         string
	AssignedUserID int64
	ReportedByID   int64
	Limit          int
	Offset         int
}

type IncidentsStore interface {
	CreateIncident(ctx context.Context, incident *Incident) (int64, error)
	UpdateIncident(ctx context.Context, incident *Incident, expectedVersion int) error
	GetIncident(ctx context.Context, id int64) (*Incident, error)
	ListIncidents(ctx context.Context, teamID int64, filter IncidentFilter) ([]Incident, error)
}

type incidentsStore struct {
	db *DB
}

func NewIncidentsStore(db *DB) IncidentsStore {
	return &incidentsStore{db: db}
}

const incidentColumns = `id, team_id, title, description, status, reported_by, assignee_user_id, created_at, updated_at, updated_by, version`

func (s *incidentsStore) CreateIncident(ctx context.Context, incident *Incident) (int64, error) {
	if incident.Version <= 0 {
		incident.Version = 1
	}
	now := time.Now().UTC()
	id, err := s.db.insertID(ctx, `
		INSERT INTO incidents(team_id, title, description, status, reported_by, assignee_user_id, created_at, updated_at, updated_by, version)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		incident.TeamID, incident.Title, incident.Description, incident.Status, incident.ReportedBy,
		nullableID(incident.AssigneeUserID), now, now, incident.UpdatedBy, incident.Version)
	if err != nil {
		return 0, err
	}
	incident.ID = id
	incident.CreatedAt = now
	incident.UpdatedAt = now
	return id, nil
}

// UpdateIncident writes all mutable fields guarded by the expected version;
// a lost race surfaces as ErrConflict, never a partial write.
func (s *incidentsStore) UpdateIncident(ctx context.Context, incident *Incident, expectedVersion int) error {
	now := time.Now().UTC()
	res, err := s.db.exec(ctx, `
		UPDATE incidents SET title=?, description=?, status=?, assignee_user_id=?, updated_by=?, updated_at=?, version=version+1
		WHERE id=? AND version=?`,
		incident.Title, incident.Description, incident.Status, nullableID(incident.AssigneeUserID),
		incident.UpdatedBy, now, incident.ID, expectedVersion)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrConflict
	}
	incident.Version = expectedVersion + 1
	incident.UpdatedAt = now
	return nil
}

func (s *incidentsStore) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	row := s.db.queryRow(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=?`, id)
	var inc Incident
	var assignee sql.NullInt64
	if err := row.Scan(&inc.ID, &inc.TeamID, &inc.Title, &inc.Description, &inc.Status, &inc.ReportedBy, &assignee, &inc.CreatedAt, &inc.UpdatedAt, &inc.UpdatedBy, &inc.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if assignee.Valid {
		inc.AssigneeUserID = &assignee.Int64
	}
	return &inc, nil
}

func (s *incidentsStore) ListIncidents(ctx context.Context, teamID int64, filter IncidentFilter) ([]Incident, error) {
	clauses := []string{"team_id=?"}
	args := []any{teamID}
	if filter.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, filter.Status)
	}
	if filter.AssignedUserID > 0 {
		clauses = append(clauses, "assignee_user_id=?")
		args = append(args, filter.AssignedUserID)
	}
	if filter.ReportedByID > 0 {
		clauses = append(clauses, "reported_by=?")
		args = append(args, filter.ReportedByID)
	}
	if filter.Search != "" {
		clauses = append(clauses, "(title LIKE ? OR description LIKE ?)")
		q := "%" + filter.Search + "%"
		args = append(args, q, q)
	}
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY updated_at DESC, id DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	rows, err := s.db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		var inc Incident
		var assignee sql.NullInt64
		if err := rows.Scan(&inc.ID, &inc.TeamID, &inc.Title, &inc.Description, &inc.Status, &inc.ReportedBy, &assignee, &inc.CreatedAt, &inc.UpdatedAt, &inc.UpdatedBy, &inc.Version); err != nil {
			return nil, err
		}
		if assignee.Valid {
			inc.AssigneeUserID = &assignee.Int64
		}
		res = append(res, inc)
	}
	return res, rows.Err()
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
