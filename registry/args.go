package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind is the JSON-schema type of a tool parameter.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
)

// Param declares one tool parameter.
type Param struct {
	Name        string
	Kind        Kind
	Description string
	Required    bool
	Minimum     *float64
	Maximum     *float64
}

// Value is a tool argument after coercion to its declared kind.
type Value struct {
	Kind  Kind
	str   string
	num   float64
	whole int64
	flag  bool
}

func (v Value) String() string { return v.str }
func (v Value) Float() float64 { return v.num }
func (v Value) Int() int64 { return v.whole }
func (v Value) Bool() bool { return v.flag }

// Any returns the Go value carried for the kind.
func (v Value) Any() any {
	switch v.Kind {
	case KindNumber:
		return v.num
	case KindInteger:
		return v.whole
	case KindBoolean:
		return v.flag
	default:
		return v.str
	}
}

// Coerce converts a raw argument from the model into a Value of the given kind.
// Numeric strings are accepted for number and integer. Integral floats are
// accepted for integer.
func Coerce(kind Kind, raw any) (Value, error) {
	v := Value{Kind: kind}

	switch kind {
	case KindString:
		switch t := raw.(type) {
		case string:
			v.str = t
		case json.Number:
			v.str = t.String()
		default:
			return v, fmt.Errorf("expected string, got %T", raw)
		}

	case KindNumber:
		f, err := toFloat(raw)
		if err != nil {
			return v, err
		}
		v.num = f

	case KindInteger:
		f, err := toFloat(raw)
		if err != nil {
			return v, err
		}
		if f != math.Trunc(f) {
			return v, fmt.Errorf("expected integer, got %v", raw)
		}
		v.whole = int64(f)

	case KindBoolean:
		switch t := raw.(type) {
		case bool:
			v.flag = t
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return v, fmt.Errorf("expected boolean, got %q", t)
			}
			v.flag = b
		default:
			return v, fmt.Errorf("expected boolean, got %T", raw)
		}

	default:
		return v, fmt.Errorf("unsupported parameter kind %q", kind)
	}

	return v, nil
}

// toFloat accepts JSON numbers and numeric strings, rejecting Inf and NaN.
func toFloat(raw any) (float64, error) {
	f, err := numberOf(raw)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("expected finite number, got %v", raw)
	}
	return f, nil
}

func numberOf(raw any) (float64, error) {
	switch t := raw.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}

// coerceArgs checks presence and kind of every declared parameter.
// Undeclared arguments are dropped.
func coerceArgs(params []Param, args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for _, p := range params {
		raw, ok := args[p.Name]
		if !ok || raw == nil {
			if p.Required {
				return nil, fmt.Errorf("missing required argument %q", p.Name)
			}
			continue
		}
		v, err := Coerce(p.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", p.Name, err)
		}
		out[p.Name] = v.Any()
	}
	return out, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeInto fills a typed input struct from coerced arguments and validates it.
func decodeInto[T any](v *validator.Validate, args map[string]any) (T, error) {
	var in T

	data, err := json.Marshal(args)
	if err != nil {
		return in, fmt.Errorf("failed to encode arguments: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("failed to decode arguments: %w", err)
	}

	if err := v.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				if fe.Param() != "" {
					msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
				} else {
					msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
				}
			}
			return in, fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
		}
		return in, fmt.Errorf("invalid arguments: %w", err)
	}

	return in, nil
}
