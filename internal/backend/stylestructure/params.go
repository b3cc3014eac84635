package stylestructure

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ParameterType is the declared type of a style parameter.
type ParameterType string

const (
	TypeInt   ParameterType = "int"
	TypeFloat ParameterType = "float"
	TypeBool  ParameterType = "bool"
)

// ParameterDescriptor declares one tunable parameter of a style. Step is a
// hint for user interfaces and is not enforced. Odd parameters are kernel
// sizes: an even value is bumped to the next odd one after the bounds
// check.
type ParameterDescriptor struct {
	Name        string        `json:"name"`
	Type        ParameterType `json:"type"`
	Default     any           `json:"default"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
	Step        float64       `json:"step,omitempty"`
	Description string        `json:"description"`
	Odd         bool          `json:"odd,omitempty"`
}

// IntParam declares a bounded integer parameter.
func IntParam(name string, def, min, max, step int, description string) ParameterDescriptor {
	lo, hi := float64(min), float64(max)
	return ParameterDescriptor{
		Name:        name,
		Type:        TypeInt,
		Default:     def,
		Min:         &lo,
		Max:         &hi,
		Step:        float64(step),
		Description: description,
	}
}

// FloatParam declares a bounded float parameter.
func FloatParam(name string, def, min, max, step float64, description string) ParameterDescriptor {
	return ParameterDescriptor{
		Name:        name,
		Type:        TypeFloat,
		Default:     def,
		Min:         &min,
		Max:         &max,
		Step:        step,
		Description: description,
	}
}

// BoolParam declares a boolean parameter.
func BoolParam(name string, def bool, description string) ParameterDescriptor {
	return ParameterDescriptor{
		Name:        name,
		Type:        TypeBool,
		Default:     def,
		Description: description,
	}
}

// OddOnly marks an integer parameter as a kernel size that must be odd.
func (d ParameterDescriptor) OddOnly() ParameterDescriptor {
	d.Odd = true
	return d
}

// Coerce converts a raw value into the declared type. Numbers may arrive
// as strings; integers reject fractional values; booleans also accept
// yes/no and on/off.
func (d ParameterDescriptor) Coerce(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}

	switch d.Type {
	case TypeInt:
		f, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("must be an integer")
		}
		return int(f), nil
	case TypeFloat:
		return toFloat(raw)
	case TypeBool:
		if s, ok := raw.(string); ok {
			switch strings.ToLower(s) {
			case "yes", "on":
				return true, nil
			case "no", "off":
				return false, nil
			}
		}
		if raw == nil {
			return nil, fmt.Errorf("must be a boolean")
		}
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("must be a boolean")
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", d.Type)
	}
}

func toFloat(raw any) (float64, error) {
	if _, isBool := raw.(bool); isBool || raw == nil {
		return 0, fmt.Errorf("must be a number")
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be a finite number")
	}
	return f, nil
}

// InRange reports whether a coerced value lies inside the declared bounds.
func (d ParameterDescriptor) InRange(v any) bool {
	if d.Type == TypeBool {
		return true
	}
	f := cast.ToFloat64(v)
	if d.Min != nil && f < *d.Min {
		return false
	}
	if d.Max != nil && f > *d.Max {
		return false
	}
	return true
}

// RangeString renders the allowed range, e.g. "[3, 20]".
func (d ParameterDescriptor) RangeString() string {
	if d.Type == TypeBool {
		return "true or false"
	}
	lo, hi := "-inf", "+inf"
	if d.Min != nil {
		lo = strconv.FormatFloat(*d.Min, 'g', -1, 64)
	}
	if d.Max != nil {
		hi = strconv.FormatFloat(*d.Max, 'g', -1, 64)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

// check verifies that the descriptor is well formed and that its default
// satisfies its own bounds.
func (d ParameterDescriptor) check() error {
	if d.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
		return fmt.Errorf("parameter %s has min %v above max %v", d.Name, *d.Min, *d.Max)
	}
	def, err := d.Coerce(d.Default)
	if err != nil {
		return fmt.Errorf("parameter %s has invalid default %v: %w", d.Name, d.Default, err)
	}
	if !d.InRange(def) {
		return fmt.Errorf("parameter %s default %v is outside %s", d.Name, d.Default, d.RangeString())
	}
	return nil
}

// InvalidParameterError reports a value that could not be coerced to the
// declared type or violates the declared bounds.
type InvalidParameterError struct {
	Param  string
	Value  any
	Range  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid value %v for parameter %q: %s (allowed: %s)", e.Value, e.Param, e.Reason, e.Range)
}

// Values holds validated, typed parameter values keyed by name.
type Values map[string]any

// Int returns the named value as an int.
func (v Values) Int(name string) int {
	return cast.ToInt(v[name])
}

// Float returns the named value as a float64.
func (v Values) Float(name string) float64 {
	return cast.ToFloat64(v[name])
}

// Bool returns the named value as a bool.
func (v Values) Bool(name string) bool {
	return cast.ToBool(v[name])
}

// Map returns a plain copy suitable for echoing to callers.
func (v Values) Map() map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Defaults returns the declared default of every parameter.
func Defaults(descs []ParameterDescriptor) Values {
	values := make(Values, len(descs))
	for _, d := range descs {
		values[d.Name] = d.Default
	}
	return values
}

// Validate coerces raw overrides against the descriptors. Missing or blank
// entries take the declared default and unknown names are ignored.
func Validate(descs []ParameterDescriptor, raw map[string]any) (Values, error) {
	values := make(Values, len(descs))
	for _, d := range descs {
		rawValue, ok := raw[d.Name]
		if !ok || isBlank(rawValue) {
			values[d.Name] = d.Default
			continue
		}

		v, err := d.Coerce(rawValue)
		if err != nil {
			return nil, &InvalidParameterError{Param: d.Name, Value: rawValue, Range: d.RangeString(), Reason: err.Error()}
		}
		if !d.InRange(v) {
			return nil, &InvalidParameterError{Param: d.Name, Value: rawValue, Range: d.RangeString(), Reason: "out of range"}
		}
		if n, isInt := v.(int); d.Odd && isInt && n%2 == 0 {
			v = n + 1
		}
		values[d.Name] = v
	}
	return values, nil
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
