package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"memodesk/config"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrMultipleStatements rejects ad-hoc SQL holding more than one statement
	ErrMultipleStatements = errors.New("only one SQL statement per query is allowed")
)

// Employee is one row of the employees table. The JSON shape is the profile
// document served to the model.
type Employee struct {
	ID              string     `json:"-"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	Department      string     `json:"department"`
	LastLogin       string     `json:"last_login"`
	AccessLevel     string     `json:"access_level"`
	PasswordResetAt *time.Time `json:"password_reset_at,omitempty"`
}

// QueryResult is the tabular output of an ad-hoc query, in column order.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	role               TEXT NOT NULL,
	department         TEXT NOT NULL,
	last_login         TEXT NOT NULL,
	access_level       TEXT NOT NULL,
	temp_password_hash TEXT,
	password_reset_at  TEXT
)`

// seedEmployees is the demo directory loaded into an empty database.
var seedEmployees = []Employee{
	{
		ID:          "emp_101",
		Name:        "Alice Johnson",
		Role:        "Senior Developer",
		Department:  "Engineering",
		LastLogin:   "2024-12-08 09:15:00",
		AccessLevel: "Admin",
	},
	{
		ID:          "emp_102",
		Name:        "Bob Smith",
		Role:        "Marketing Specialist",
		Department:  "Marketing",
		LastLogin:   "2024-12-07 14:30:00",
		AccessLevel: "User",
	},
}

// Store handles employee persistence on SQLite
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Store] Opened %s", path)
	}

	return &Store{db: db}, nil
}

// Seed inserts the demo employees that are not present yet.
func (s *Store) Seed(ctx context.Context) error {
	for _, e := range seedEmployees {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO employees (id, name, role, department, last_login, access_level)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Name, e.Role, e.Department, e.LastLogin, e.AccessLevel)
		if err != nil {
			return fmt.Errorf("failed to seed employee %s: %w", e.ID, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetEmployee returns ErrNotFound when no row has the given id.
func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, role, department, last_login, access_level, password_reset_at
		 FROM employees WHERE id = ?`, id)

	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee %s: %w", id, err)
	}
	return e, nil
}

// ListEmployees returns all employees ordered by id
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, role, department, last_login, access_level, password_reset_at
		 FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// ResetPassword stores a hash of tempPassword and stamps the reset time.
func (s *Store) ResetPassword(ctx context.Context, id, tempPassword string) (*Employee, error) {
	sum := sha256.Sum256([]byte(tempPassword))
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET temp_password_hash = ?, password_reset_at = ? WHERE id = ?`,
		hex.EncodeToString(sum[:]), now.Format(time.RFC3339), id)
	if err != nil {
		return nil, fmt.Errorf("failed to reset password for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}

	return s.GetEmployee(ctx, id)
}

// Query runs one ad-hoc statement read-only. The connection is switched to
// query_only for the call and the statement runs in a transaction that is
// always rolled back, so writes fail and never reach the table.
func (s *Store) Query(ctx context.Context, query string) (*QueryResult, error) {
	if multipleStatements(query) {
		return nil, ErrMultipleStatements
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("failed to enter read-only mode: %w", err)
	}
	defer func() {
		// The pool has one connection; it must be writable again for resets
		if _, err := conn.ExecContext(context.Background(), "PRAGMA query_only = OFF"); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Store] Failed to leave read-only mode: %v", err)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// multipleStatements reports whether anything but whitespace, comments and
// semicolons follows the first statement terminator. Quoted strings and
// identifiers are skipped so a ';' inside them does not count.
func multipleStatements(query string) bool {
	terminated := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			j := strings.IndexByte(query[i:], '\n')
			if j < 0 {
				return false
			}
			i += j
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			j := strings.Index(query[i+2:], "*/")
			if j < 0 {
				return false
			}
			i += j + 3
		case c == ';':
			terminated = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
		case terminated:
			return true
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closer := c
			if c == '[' {
				closer = ']'
			}
			j := strings.IndexByte(query[i+1:], closer)
			if j < 0 {
				// Unterminated, the driver reports the syntax error
				return false
			}
			i += j + 1
		}
	}
	return false
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(sc scanner) (*Employee, error) {
	var e Employee
	var resetAt sql.NullString
	if err := sc.Scan(&e.ID, &e.Name, &e.Role, &e.Department, &e.LastLogin, &e.AccessLevel, &resetAt); err != nil {
		return nil, err
	}
	if resetAt.Valid {
		if t, err := time.Parse(time.RFC3339, resetAt.String); err == nil {
			e.PasswordResetAt = &t
		}
	}
	return &e, nil
}
