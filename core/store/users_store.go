package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UsersStore interface {
	Create(ctx context.Context, user *User) (int64, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)

	IsPlatformManager(ctx context.Context, userID int64) (bool, error)
	SetPlatformManager(ctx context.Context, userID, grantedBy int64, grant bool) error
	ListPlatformManagers(ctx context.Context) ([]int64, error)
}

type usersStore struct {
	db *DB
}

func NewUsersStore(db *DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, username, full_name, email, password_hash, salt, active, created_at, updated_at`

func (s *usersStore) Create(ctx context.Context, user *User) (int64, error) {
	now := time.Now().UTC()
	id, err := s.db.insertID(ctx, `
		INSERT INTO users(username, full_name, email, password_hash, salt, active, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		strings.ToLower(strings.TrimSpace(user.Username)), strings.TrimSpace(user.FullName), strings.TrimSpace(user.Email),
		user.PasswordHash, user.Salt, boolToInt(user.Active), now, now)
	if err != nil {
		return 0, translateConstraint(err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return id, nil
}

func (s *usersStore) Update(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	res, err := s.db.exec(ctx, `
		UPDATE users SET full_name=?, email=?, password_hash=?, salt=?, active=?, updated_at=? WHERE id=?`,
		strings.TrimSpace(user.FullName), strings.TrimSpace(user.Email), user.PasswordHash, user.Salt, boolToInt(user.Active), now, user.ID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	user.UpdatedAt = now
	return nil
}

func (s *usersStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.exec(ctx, `DELETE FROM users WHERE id=?`, id)
	return err
}

func (s *usersStore) Get(ctx context.Context, id int64) (*User, error) {
	row := s.db.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

func (s *usersStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`,
		strings.ToLower(strings.TrimSpace(username)))
	return scanUser(row)
}

func (s *usersStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		var u User
		var active int
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash, &u.Salt, &active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Active = active == 1
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *usersStore) IsPlatformManager(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := s.db.queryRow(ctx, `SELECT 1 FROM platform_managers WHERE user_id=?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *usersStore) SetPlatformManager(ctx context.Context, userID, grantedBy int64, grant bool) error {
	if !grant {
		_, err := s.db.exec(ctx, `DELETE FROM platform_managers WHERE user_id=?`, userID)
		return err
	}
	already, err := s.IsPlatformManager(ctx, userID)
	if err != nil || already {
		return err
	}
	_, err = s.db.exec(ctx, `INSERT INTO platform_managers(user_id, granted_by, granted_at) VALUES(?,?,?)`,
		userID, grantedBy, time.Now().UTC())
	return err
}

func (s *usersStore) ListPlatformManagers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.query(ctx, `SELECT user_id FROM platform_managers ORDER BY user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var active int
	if err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash, &u.Salt, &active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Active = active == 1
	return &u, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
