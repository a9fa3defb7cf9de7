package validate

import (
	"github.com/redmonkez12/places-api/internal/apperror"
)

// Field binds rules to a named input field.
type Field struct {
	Name  string
	Rules []Rule
}

// Schema is the ordered set of field rules for one route.
type Schema []Field

// Values holds the validated, normalized inputs of a request.
type Values map[string]string

// Get returns the value of name, or "" when absent.
func (v Values) Get(name string) string {
	return v[name]
}

// Has reports whether name was sent.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Lookup fetches a raw field value and whether it was sent.
type Lookup func(name string) (string, bool)

// Check runs every rule of every field and aggregates the failures. Rules of a
// field run in order; a rejected field stops at its first failing rule so the
// messages stay readable. Fields not named by the schema are dropped.
func (s Schema) Check(lookup Lookup) (Values, error) {
	values := make(Values, len(s))
	failures := map[string][]string{}

	for _, field := range s {
		value, present := lookup(field.Name)
		for _, rule := range field.Rules {
			var msg string
			value, msg = rule.Check(value, present)
			if msg != "" {
				failures[field.Name] = append(failures[field.Name], msg)
				break
			}
		}
		if present {
			values[field.Name] = value
		}
	}

	if len(failures) > 0 {
		return nil, apperror.Validation(failures)
	}
	return values, nil
}

// F is shorthand for building a Schema field.
func F(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules}
}
