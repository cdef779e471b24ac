package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"sapsan-irt/config"
	"sapsan-irt/core/utils"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

// DB wraps the sql pool with the dialect so stores can write one query
// form. Queries are authored with ? placeholders; rebind rewrites them for
// postgres.
type DB struct {
	*sql.DB
	dialect string
}

// NewDB opens the configured database: postgres through the pgx stdlib
// driver, or a file-backed sqlite database for single-host deployments and
// tests.
func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch driver {
	case "postgres", "pgx":
		db, err := sql.Open("pgx", cfg.DBURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Printf("DB connected driver=postgres")
		return &DB{DB: db, dialect: dialectPostgres}, nil
	case "", "sqlite", "sqlite3":
		path := strings.TrimSpace(cfg.DBPath)
		if path == "" {
			return nil, fmt.Errorf("sqlite driver requires db_path")
		}
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, err
			}
		}
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// Serialized writes; the modernc driver is not safe for concurrent
		// writers on one connection pool beyond this.
		db.SetMaxOpenConns(1)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		logger.Printf("DB connected driver=sqlite path=%s", path)
		return &DB{DB: db, dialect: dialectSQLite}, nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
}

// GooseDialect maps the configured driver to the goose dialect name.
func GooseDialect(cfg *config.AppConfig) string {
	switch strings.ToLower(strings.TrimSpace(cfg.DBDriver)) {
	case "postgres", "pgx":
		return "postgres"
	}
	return "sqlite3"
}

// rebind rewrites ? placeholders to the $N form postgres expects. The
// sqlite dialect takes queries as written. No query here carries a literal
// question mark outside a placeholder.
func (d *DB) rebind(query string) string {
	if d.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (d *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.rebind(query), args...)
}

// insertID runs an INSERT and returns the generated row id. Postgres has
// no LastInsertId, so that dialect appends RETURNING id and reads it back.
func (d *DB) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	if d.dialect == dialectPostgres {
		var id int64
		err := d.DB.QueryRowContext(ctx, d.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := d.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ErrDuplicate reports an insert that tripped a uniqueness constraint,
// a duplicate username or an already-seated team member.
var ErrDuplicate = errors.New("already exists")

func translateConstraint(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	if strings.Contains(err.Error(), "constraint failed") {
		return ErrDuplicate
	}
	return err
}
