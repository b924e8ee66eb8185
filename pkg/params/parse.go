package params

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
)

var (
	truthy = []string{"true", "1", "yes", "y", "t", "on"}
	falsy  = []string{"false", "0", "no", "n", "f", "off"}
)

type Parser struct {
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*Parser)

// WithClock fixes the reference time used for relative dates.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads every parameter declared by schema from raw. Undeclared
// parameters are ignored.
func (p *Parser) Parse(schema Schema, raw url.Values) (Values, error) {
	now := p.now()
	values := make(Values, len(schema))

	for _, spec := range schema {
		input, present := lookup(raw, spec)
		if !present {
			if spec.Required {
				return nil, pipelineerrors.MissingParameter(spec.Name)
			}
			value, err := p.defaultValue(spec, now)
			if err != nil {
				return nil, err
			}
			values[spec.Name] = value
			continue
		}

		value, err := p.parseValue(spec, input, now)
		if err != nil {
			return nil, err
		}
		if err := p.check(spec, value, strings.Join(input, ",")); err != nil {
			return nil, err
		}
		values[spec.Name] = value
	}

	return values, nil
}

// lookup returns the non-empty inputs for spec. Lists accept repeated keys.
func lookup(raw url.Values, spec Spec) ([]string, bool) {
	inputs := raw[spec.Name]
	if spec.Type != List {
		if len(inputs) == 0 || strings.TrimSpace(inputs[0]) == "" {
			return nil, false
		}
		return inputs[:1], true
	}

	var items []string
	for _, input := range inputs {
		items = append(items, SplitList(input)...)
	}
	return items, len(items) > 0
}

// SplitList splits a comma-separated argument, trimming and dropping empty tokens.
func SplitList(input string) []string {
	var out []string
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

func (p *Parser) defaultValue(spec Spec, now time.Time) (any, error) {
	if spec.Default == nil {
		return nil, nil
	}
	switch d := spec.Default.(type) {
	case string:
		if spec.Type == Date {
			t, ok := ParseDate(d, now)
			if !ok {
				return nil, fmt.Errorf("parameter %s has an invalid default date %q", spec.Name, d)
			}
			return t, nil
		}
		return d, nil
	case []string:
		return slices.Clone(d), nil
	default:
		return d, nil
	}
}

func (p *Parser) parseValue(spec Spec, input []string, now time.Time) (any, error) {
	input = slices.Clone(input)
	if spec.Upper {
		for i := range input {
			input[i] = strings.ToUpper(input[i])
		}
	}
	value := strings.TrimSpace(input[0])

	switch spec.Type {
	case Integer:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, pipelineerrors.InvalidNumber(spec.Name, value)
		}
		return i, nil
	case Float:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, pipelineerrors.InvalidNumber(spec.Name, value)
		}
		return f, nil
	case Boolean:
		b, ok := ParseBool(value)
		if !ok {
			return nil, pipelineerrors.InvalidBool(spec.Name, value)
		}
		return b, nil
	case Date:
		t, ok := ParseDate(value, now)
		if !ok {
			return nil, pipelineerrors.InvalidDate(spec.Name, value)
		}
		return t, nil
	case Enum:
		if !slices.Contains(spec.Choices, value) {
			return nil, pipelineerrors.InvalidEnum(spec.Name, value, spec.Choices)
		}
		return value, nil
	case List:
		if len(spec.Choices) > 0 {
			for _, item := range input {
				if !slices.Contains(spec.Choices, item) {
					return nil, pipelineerrors.InvalidEnum(spec.Name, item, spec.Choices)
				}
			}
		}
		return slices.Clone(input), nil
	default:
		return value, nil
	}
}

// check applies the parameter's validator tag to a parsed value.
func (p *Parser) check(spec Spec, value any, input string) error {
	if spec.Validate == "" {
		return nil
	}
	if err := p.validate.Var(value, spec.Validate); err != nil {
		return pipelineerrors.InvalidParameter(spec.Name, input, describe(err))
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("rule '%s' expected '%s', got '%v'", fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("rule '%s' failed for '%v'", fe.Tag(), fe.Value())
}

// ParseBool accepts the common truthy and falsy spellings, case-insensitively.
func ParseBool(value string) (bool, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch {
	case slices.Contains(truthy, value):
		return true, true
	case slices.Contains(falsy, value):
		return false, true
	default:
		return false, false
	}
}
