package registry

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"memodesk/storage"
)

type bonusInput struct {
	Salary           float64 `json:"salary" validate:"gte=0"`
	PerformanceScore int64   `json:"performance_score" validate:"min=1,max=5"`
}

type resetInput struct {
	UserID string `json:"user_id" validate:"required"`
}

type sqlInput struct {
	Query string `json:"query" validate:"required"`
}

type noInput struct{}

// typed adapts a handler taking a validated input struct into a toolFunc.
func typed[T any](r *Registry, fn func(context.Context, T) (string, error)) toolFunc {
	return func(ctx context.Context, args map[string]any) (string, error) {
		in, err := decodeInto[T](r.validate, args)
		if err != nil {
			return "", err
		}
		return fn(ctx, in)
	}
}

func bound(v float64) *float64 { return &v }

func (r *Registry) registerTools() {
	r.addTool(&tool{
		name:        "calculate_bonus",
		description: "Calculates yearly bonus based on performance (1-5).",
		params: []Param{
			{Name: "salary", Kind: KindNumber, Description: "Yearly salary", Required: true},
			{Name: "performance_score", Kind: KindInteger, Description: "Performance score from 1 to 5", Required: true, Minimum: bound(1), Maximum: bound(5)},
		},
		run: typed(r, r.calculateBonus),
	})

	r.addTool(&tool{
		name:        "reset_password",
		description: "Resets the password for a specific user and generates a temporary one.",
		params: []Param{
			{Name: "user_id", Kind: KindString, Description: "Employee ID, e.g. emp_101", Required: true},
		},
		run: typed(r, r.resetPassword),
	})

	r.addTool(&tool{
		name:        "get_system_stats",
		description: "Returns current CPU, memory and disk usage of the host.",
		run:         typed(r, r.systemStats),
	})

	r.addTool(&tool{
		name:        "execute_sql",
		description: "Runs a read-only SQL query against the employees table and returns the rows as JSON.",
		params: []Param{
			{Name: "query", Kind: KindString, Description: "SQL statement to run", Required: true},
		},
		run: typed(r, r.executeSQL),
	})
}

func (r *Registry) calculateBonus(_ context.Context, in bonusInput) (string, error) {
	var bonus float64
	switch {
	case in.PerformanceScore >= 5:
		bonus = in.Salary * 0.20
	case in.PerformanceScore >= 3:
		bonus = in.Salary * 0.10
	}
	return "Calculated Bonus: $" + formatAmount(bonus), nil
}

// formatAmount prints the shortest representation, keeping one decimal for
// whole amounts (18000 -> "18000.0").
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (r *Registry) resetPassword(ctx context.Context, in resetInput) (string, error) {
	pass, err := r.newPassword()
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}

	e, err := r.store.ResetPassword(ctx, in.UserID, pass)
	if errors.Is(err, storage.ErrNotFound) {
		return "FAILED: User ID not found.", nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("SUCCESS: Password for %s has been reset. Temp pass: %s", e.Name, pass), nil
}

func (r *Registry) systemStats(ctx context.Context, _ noInput) (string, error) {
	snap, err := r.telemetry.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return marshalIndent(snap)
}

type sqlResult struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

func (r *Registry) executeSQL(ctx context.Context, in sqlInput) (string, error) {
	res, err := r.store.Query(ctx, in.Query)
	if err != nil {
		return "", err
	}
	return marshalIndent(sqlResult{
		Columns:  res.Columns,
		Rows:     res.Rows,
		RowCount: len(res.Rows),
	})
}

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789#!@$%"

func generateTempPassword() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for range 8 {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}
