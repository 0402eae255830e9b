package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetEmployee(t *testing.T) {
	s := newTestStore(t)

	e, err := s.GetEmployee(context.Background(), "emp_101")
	if err != nil {
		t.Fatalf("GetEmployee failed: %v", err)
	}
	if e.Name != "Alice Johnson" || e.Department != "Engineering" || e.AccessLevel != "Admin" {
		t.Errorf("unexpected employee: %+v", e)
	}
	if e.PasswordResetAt != nil {
		t.Error("fresh employee should have no reset time")
	}

	_, err = s.GetEmployee(context.Background(), "emp_999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}

	employees, err := s.ListEmployees(ctx)
	if err != nil {
		t.Fatalf("ListEmployees failed: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}
	if employees[0].ID != "emp_101" || employees[1].ID != "emp_102" {
		t.Errorf("unexpected order: %s, %s", employees[0].ID, employees[1].ID)
	}
}

func TestResetPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, err := s.ResetPassword(ctx, "emp_102", "temp-1234")
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if e.Name != "Bob Smith" {
		t.Errorf("expected Bob Smith, got %s", e.Name)
	}
	if e.PasswordResetAt == nil {
		t.Error("expected reset time to be recorded")
	}

	_, err = s.ResetPassword(ctx, "nobody", "x")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := s.Query(ctx, "SELECT id, name FROM employees WHERE department = 'Marketing'")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(res.Columns) != 2 || res.Columns[0] != "id" || res.Columns[1] != "name" {
		t.Errorf("unexpected columns: %v", res.Columns)
	}
	if len(res.Rows) != 1 || res.Rows[0][1] != "Bob Smith" {
		t.Errorf("unexpected rows: %v", res.Rows)
	}

	if _, err := s.Query(ctx, "SELEC nonsense"); err == nil {
		t.Error("expected error for malformed query")
	}
}

func TestQueryNeverWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	queries := []string{
		"DELETE FROM employees",
		"UPDATE employees SET name = 'x'",
		"COMMIT; DELETE FROM employees",
		"END; DELETE FROM employees",
		"SELECT 1; DELETE FROM employees",
		"PRAGMA query_only = OFF; DELETE FROM employees",
	}
	for _, q := range queries {
		if _, err := s.Query(ctx, q); err == nil {
			t.Errorf("Query(%q) should fail", q)
		}
	}

	// A lone pragma cannot carry over to the next call
	if _, err := s.Query(ctx, "PRAGMA query_only = OFF"); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if _, err := s.Query(ctx, "DELETE FROM employees"); err == nil {
		t.Error("delete after pragma should still fail")
	}

	employees, err := s.ListEmployees(ctx)
	if err != nil {
		t.Fatalf("ListEmployees failed: %v", err)
	}
	if len(employees) != 2 {
		t.Errorf("table should be untouched, got %d employees", len(employees))
	}
	for _, e := range employees {
		if e.Name == "x" {
			t.Errorf("update leaked into %s", e.ID)
		}
	}
}

func TestQueryLeavesStoreWritable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Query(ctx, "SELECT * FROM employees"); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if _, err := s.ResetPassword(ctx, "emp_101", "temp"); err != nil {
		t.Errorf("ResetPassword after Query failed: %v", err)
	}
}

func TestMultipleStatements(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", false},
		{"SELECT 1;", false},
		{"SELECT 1; ;  \n", false},
		{"SELECT 1; -- trailing note", false},
		{"SELECT 1; /* done */", false},
		{"SELECT 'a;b' FROM employees", false},
		{"SELECT 'it''s; fine'", false},
		{`SELECT "odd;name" FROM employees`, false},
		{"SELECT [semi;colon] FROM employees", false},
		{"SELECT 1 -- ; DELETE\n", false},
		{"SELECT 1; DELETE FROM employees", true},
		{"COMMIT;DELETE FROM employees", true},
		{"SELECT 1; -- note\nDELETE FROM employees", true},
		{"SELECT 1; /* x */ DELETE FROM employees", true},
		{"SELECT ';'; 'x'", true},
	}
	for _, tt := range tests {
		if got := multipleStatements(tt.query); got != tt.want {
			t.Errorf("multipleStatements(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestOpenFileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memodb.sqlite")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if _, err := s.ResetPassword(ctx, "emp_101", "abc"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	e, err := s.GetEmployee(ctx, "emp_101")
	if err != nil {
		t.Fatalf("GetEmployee failed: %v", err)
	}
	if e.PasswordResetAt == nil {
		t.Error("reset time should survive reopen")
	}
}
