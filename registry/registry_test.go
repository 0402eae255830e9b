package registry

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"memodesk/storage"
	"memodesk/telemetry"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	r := New(store, &telemetry.Static{Value: telemetry.Snapshot{Hostname: "testhost", CPUCount: 4}})
	r.newPassword = func() (string, error) { return "Xy9#mP2!", nil }
	return r
}

func TestListTools(t *testing.T) {
	r := newTestRegistry(t)
	tools := r.ListTools()

	want := []string{"calculate_bonus", "reset_password", "get_system_stats", "execute_sql"}
	if len(tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(tools))
	}
	for i, name := range want {
		if tools[i].Name != name {
			t.Errorf("tool %d: expected %s, got %s", i, name, tools[i].Name)
		}
		if tools[i].InputSchema.Type != "object" {
			t.Errorf("tool %s: expected object schema, got %q", name, tools[i].InputSchema.Type)
		}
	}

	bonus := tools[0].InputSchema
	score, ok := bonus.Properties["performance_score"].(map[string]any)
	if !ok {
		t.Fatal("performance_score property missing")
	}
	if score["type"] != "integer" {
		t.Errorf("expected integer type, got %v", score["type"])
	}
	if len(bonus.Required) != 2 {
		t.Errorf("expected 2 required params, got %v", bonus.Required)
	}
}

func TestCalculateBonus(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"top score", map[string]any{"salary": 90000.0, "performance_score": 5.0}, "Calculated Bonus: $18000.0"},
		{"mid score", map[string]any{"salary": 50000.0, "performance_score": 3.0}, "Calculated Bonus: $5000.0"},
		{"low score", map[string]any{"salary": 50000.0, "performance_score": 2.0}, "Calculated Bonus: $0.0"},
		{"fractional amount", map[string]any{"salary": 12345.0, "performance_score": 3.0}, "Calculated Bonus: $1234.5"},
		{"string numbers", map[string]any{"salary": "90000", "performance_score": "5"}, "Calculated Bonus: $18000.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.CallTool(context.Background(), "calculate_bonus", tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCallToolInvalidArguments(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantSub string
	}{
		{"missing salary", "calculate_bonus", map[string]any{"performance_score": 5.0}, `missing required argument "salary"`},
		{"fractional score", "calculate_bonus", map[string]any{"salary": 1.0, "performance_score": 4.5}, "expected integer"},
		{"score out of range", "calculate_bonus", map[string]any{"salary": 1.0, "performance_score": 9.0}, "performance_score must satisfy max=5"},
		{"wrong type", "reset_password", map[string]any{"user_id": true}, "expected string"},
		{"empty id", "reset_password", map[string]any{"user_id": ""}, "user_id must satisfy required"},
		{"bad number", "calculate_bonus", map[string]any{"salary": "lots", "performance_score": 5.0}, "expected number"},
		{"infinite salary", "calculate_bonus", map[string]any{"salary": "Inf", "performance_score": 5.0}, "expected finite number"},
		{"NaN salary", "calculate_bonus", map[string]any{"salary": "NaN", "performance_score": 5.0}, "expected finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := r.CallTool(context.Background(), tt.tool, tt.args)
			if !errors.Is(err, ErrToolExecution) {
				t.Fatalf("expected ErrToolExecution, got %v", err)
			}
			if !strings.HasPrefix(text, "Error: ") {
				t.Errorf("expected textual error, got %q", text)
			}
			if !strings.Contains(text, tt.wantSub) {
				t.Errorf("expected %q in %q", tt.wantSub, text)
			}
		})
	}
}

func TestCallToolUnknownSuggests(t *testing.T) {
	r := newTestRegistry(t)

	text, err := r.CallTool(context.Background(), "calc_bonus", nil)
	if !errors.Is(err, ErrToolExecution) {
		t.Fatalf("expected ErrToolExecution, got %v", err)
	}
	if !strings.Contains(text, `unknown tool "calc_bonus"`) {
		t.Errorf("unexpected text: %q", text)
	}
	if !strings.Contains(text, `did you mean "calculate_bonus"`) {
		t.Errorf("expected suggestion in %q", text)
	}
}

func TestCallToolRecoversPanic(t *testing.T) {
	r := newTestRegistry(t)
	r.addTool(&tool{
		name: "explode",
		run: func(ctx context.Context, args map[string]any) (string, error) {
			panic("kaboom")
		},
	})

	text, err := r.CallTool(context.Background(), "explode", nil)
	if !errors.Is(err, ErrToolExecution) {
		t.Fatalf("expected ErrToolExecution, got %v", err)
	}
	if !strings.Contains(text, "kaboom") {
		t.Errorf("expected panic value in %q", text)
	}
}

func TestResetPassword(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.CallTool(ctx, "reset_password", map[string]any{"user_id": "emp_101"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SUCCESS: Password for Alice Johnson has been reset. Temp pass: Xy9#mP2!"
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}

	profile, err := r.ReadResource(ctx, "memodb://employees/emp_101")
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if !strings.Contains(profile, "password_reset_at") {
		t.Errorf("reset should be visible on the profile: %s", profile)
	}

	text, err = r.CallTool(ctx, "reset_password", map[string]any{"user_id": "emp_404"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "FAILED: User ID not found." {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestGeneratedPasswords(t *testing.T) {
	p1, err := generateTempPassword()
	if err != nil {
		t.Fatal(err)
	}
	p2, _ := generateTempPassword()
	if len(p1) != 8 {
		t.Errorf("expected 8 characters, got %q", p1)
	}
	if p1 == p2 {
		t.Error("expected distinct passwords")
	}
}

func TestExecuteSQL(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.CallTool(ctx, "execute_sql", map[string]any{"query": "SELECT id, name FROM employees ORDER BY id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Columns  []string `json:"columns"`
		Rows     [][]any  `json:"rows"`
		RowCount int      `json:"row_count"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, text)
	}
	if got.RowCount != 2 || len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", got.RowCount)
	}
	if got.Columns[0] != "id" || got.Rows[1][1] != "Bob Smith" {
		t.Errorf("unexpected result: %+v", got)
	}

	text, err = r.CallTool(ctx, "execute_sql", map[string]any{"query": "SELECT * FROM nowhere"})
	if !errors.Is(err, ErrToolExecution) {
		t.Fatalf("expected ErrToolExecution, got %v", err)
	}
	if !strings.HasPrefix(text, "Error: ") {
		t.Errorf("expected textual error, got %q", text)
	}

	text, _ = r.CallTool(ctx, "execute_sql", map[string]any{"query": "COMMIT; DELETE FROM employees"})
	if !strings.Contains(text, "one SQL statement") {
		t.Errorf("expected multi-statement rejection, got %q", text)
	}
	text, err = r.CallTool(ctx, "execute_sql", map[string]any{"query": "SELECT COUNT(*) AS n FROM employees"})
	if err != nil || !strings.Contains(text, "2") {
		t.Errorf("employees should be untouched, got %q (%v)", text, err)
	}
}

func TestGetSystemStats(t *testing.T) {
	r := newTestRegistry(t)

	text, err := r.CallTool(context.Background(), "get_system_stats", map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, `"hostname": "testhost"`) {
		t.Errorf("unexpected stats: %s", text)
	}
}

func TestReadResource(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	text, err := r.ReadResource(ctx, "memodb://employees/emp_102")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var profile map[string]any
	if err := json.Unmarshal([]byte(text), &profile); err != nil {
		t.Fatalf("profile is not JSON: %v", err)
	}
	if profile["name"] != "Bob Smith" || profile["access_level"] != "User" {
		t.Errorf("unexpected profile: %v", profile)
	}
	if !strings.Contains(text, "\n  \"name\"") {
		t.Errorf("profile should be indented: %s", text)
	}

	text, err = r.ReadResource(ctx, "memodb://employees/emp_999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if text != "Error: Employee not found in the database." {
		t.Errorf("unexpected miss text: %q", text)
	}

	text, err = r.ReadResource(ctx, "memodb://employees")
	if err != nil {
		t.Fatalf("directory read failed: %v", err)
	}
	if !strings.Contains(text, "emp_101") || !strings.Contains(text, "emp_102") {
		t.Errorf("directory missing employees: %s", text)
	}

	text, err = r.ReadResource(ctx, "ftp://elsewhere")
	if !errors.Is(err, ErrNotFound) || text != "" {
		t.Errorf("expected bare ErrNotFound, got %q, %v", text, err)
	}
}

func TestListResources(t *testing.T) {
	r := newTestRegistry(t)

	resources := r.ListResources()
	if len(resources) != 2 || resources[0].URI != EmployeesURI || resources[1].URI != TelemetryURI {
		t.Errorf("unexpected resources: %+v", resources)
	}

	templates := r.ListResourceTemplates()
	if len(templates) != 1 || templates[0].URITemplate.Raw() != EmployeeTemplateURI {
		t.Errorf("unexpected templates: %+v", templates)
	}
}

func TestGetPrompt(t *testing.T) {
	r := newTestRegistry(t)

	text, err := r.GetPrompt("create_onboarding_plan", map[string]string{"user_id": "emp_101"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "employee with ID: emp_101") || !strings.Contains(text, "memodb://employees/emp_101") {
		t.Errorf("unexpected prompt: %s", text)
	}

	if _, err := r.GetPrompt("create_onboarding_plan", nil); err == nil {
		t.Error("expected error for missing argument")
	}
	if _, err := r.GetPrompt("nope", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	prompts := r.ListPrompts()
	if len(prompts) != 1 || len(prompts[0].Arguments) != 1 || !prompts[0].Arguments[0].Required {
		t.Errorf("unexpected prompts: %+v", prompts)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		raw     any
		want    any
		wantErr bool
	}{
		{"string", KindString, "abc", "abc", false},
		{"number float", KindNumber, 1.5, 1.5, false},
		{"number int", KindNumber, 3, 3.0, false},
		{"number string", KindNumber, " 2.5 ", 2.5, false},
		{"integer from float", KindInteger, 4.0, int64(4), false},
		{"integer from string", KindInteger, "7", int64(7), false},
		{"integer fractional", KindInteger, 4.2, nil, true},
		{"number Inf string", KindNumber, "Inf", nil, true},
		{"number NaN string", KindNumber, "NaN", nil, true},
		{"number infinite float", KindNumber, math.Inf(1), nil, true},
		{"integer negative Inf", KindInteger, "-Inf", nil, true},
		{"boolean", KindBoolean, true, true, false},
		{"boolean string", KindBoolean, "false", false, false},
		{"boolean garbage", KindBoolean, "maybe", nil, true},
		{"string from number", KindString, 12.0, nil, true},
		{"unknown kind", Kind("array"), []any{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Coerce(tt.kind, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", v.Any())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Any() != tt.want {
				t.Errorf("expected %v (%T), got %v (%T)", tt.want, tt.want, v.Any(), v.Any())
			}
		})
	}
}
