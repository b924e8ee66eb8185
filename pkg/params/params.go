// Package params turns a request's flat query string into typed, validated
// values that later pipeline stages look up by name.
package params

import (
	"slices"
	"time"
)

type Type int

const (
	String Type = iota
	Integer
	Float
	Boolean
	List
	Enum
	Date
)

func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	case List:
		return "list"
	case Enum:
		return "enum"
	case Date:
		return "date"
	default:
		return "string"
	}
}

// Spec declares one query parameter.
type Spec struct {
	Name string
	Type Type
	// Default is used when the parameter is absent or empty. Date defaults
	// are strings resolved like user input (so "-7" means a week ago).
	Default  any
	Help     string
	Required bool
	// Choices restricts Enum values and each List element.
	Choices []string
	// Upper upper-cases string and list input before validation.
	Upper bool
	// Validate is a go-playground/validator tag applied to the parsed value.
	Validate string
}

type Schema []Spec

// With returns a copy of the schema where specs replace same-named entries and new ones are appended.
func (s Schema) With(specs ...Spec) Schema {
	out := slices.Clone(s)
	for _, spec := range specs {
		idx := slices.IndexFunc(out, func(existing Spec) bool { return existing.Name == spec.Name })
		if idx >= 0 {
			out[idx] = spec
		} else {
			out = append(out, spec)
		}
	}
	return out
}

// Without returns a copy of the schema without the named parameters.
func (s Schema) Without(names ...string) Schema {
	return slices.DeleteFunc(slices.Clone(s), func(spec Spec) bool { return slices.Contains(names, spec.Name) })
}

func (s Schema) Lookup(name string) (Spec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

// Values holds parsed parameters. Absent parameters without defaults are missing.
type Values map[string]any

func (v Values) Has(name string) bool {
	value, ok := v[name]
	if !ok || value == nil {
		return false
	}
	if list, ok := value.([]string); ok {
		return len(list) > 0
	}
	return true
}

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Strings(name string) []string {
	s, _ := v[name].([]string)
	return s
}

func (v Values) Int(name string) (int, bool) {
	i, ok := v[name].(int)
	return i, ok
}

func (v Values) Float(name string) (float64, bool) {
	f, ok := v[name].(float64)
	return f, ok
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

func (v Values) Date(name string) (time.Time, bool) {
	d, ok := v[name].(time.Time)
	return d, ok
}

// Set returns a copy of the values with name overridden.
func (v Values) Set(name string, value any) Values {
	out := make(Values, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	out[name] = value
	return out
}
