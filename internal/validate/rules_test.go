package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/validate"
)

func lookupOf(fields map[string]string) validate.Lookup {
	return func(name string) (string, bool) {
		v, ok := fields[name]
		return v, ok
	}
}

func TestRules(t *testing.T) {
	tests := []struct {
		name    string
		rule    validate.Rule
		value   string
		want    string
		wantErr bool
	}{
		{"not empty ok", validate.NotEmpty(), "Eiffel Tower", "Eiffel Tower", false},
		{"not empty blank", validate.NotEmpty(), "   ", "   ", true},
		{"min length ok", validate.MinLength(5), "tower", "tower", false},
		{"min length short", validate.MinLength(5), "towe", "towe", true},
		{"min length counts runes", validate.MinLength(5), "ÉÉÉÉÉ", "ÉÉÉÉÉ", false},
		{"email ok", validate.IsEmail(), "ana@x.com", "ana@x.com", false},
		{"email missing at", validate.IsEmail(), "ana.x.com", "ana.x.com", true},
		{"email with display name", validate.IsEmail(), "Ana <ana@x.com>", "Ana <ana@x.com>", true},
		{"email without tld", validate.IsEmail(), "ana@localhost", "ana@localhost", true},
		{"normalize email", validate.NormalizeEmail(), "  Ana@X.com ", "ana@x.com", false},
		{"uuid ok", validate.IsUUID(), "0b6f6f7e-7c1d-4a57-9d61-4c0a2f8c6a10", "0b6f6f7e-7c1d-4a57-9d61-4c0a2f8c6a10", false},
		{"number ok", validate.IsNumber(), " 48.8584 ", "48.8584", false},
		{"number bad", validate.IsNumber(), "north", "north", true},
		{"number nan", validate.IsNumber(), "NaN", "NaN", true},
		{"number inf", validate.IsNumber(), "-Inf", "-Inf", true},
		{"number overflow", validate.IsNumber(), "1e400", "1e400", true},
		{"range ok", validate.InRange(-90, 90), "-90", "-90", false},
		{"range above", validate.InRange(-90, 90), "90.5", "90.5", true},
		{"range below", validate.InRange(-180, 180), "-181", "-181", true},
		{"range not a number", validate.InRange(-180, 180), "NaN", "NaN", true},
		{"uuid bad", validate.IsUUID(), "u1", "u1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := tt.rule.Check(tt.value, true)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, msg != "")
		})
	}
}

func TestOptional_SkipsAbsentField(t *testing.T) {
	rule := validate.Optional(validate.MinLength(3))

	_, msg := rule.Check("", false)
	assert.Empty(t, msg)

	_, msg = rule.Check("ab", true)
	assert.NotEmpty(t, msg)
}

func TestSchema_NormalizesBeforeLaterRules(t *testing.T) {
	schema := validate.Schema{
		validate.F("email", validate.NormalizeEmail(), validate.IsEmail()),
		validate.F("password", validate.MinLength(6)),
	}

	values, err := schema.Check(lookupOf(map[string]string{
		"email":    " ANA@X.COM",
		"password": "secret1",
		"extra":    "dropped",
	}))
	require.NoError(t, err)

	assert.Equal(t, "ana@x.com", values.Get("email"))
	assert.Equal(t, "secret1", values.Get("password"))
	assert.False(t, values.Has("extra"))
}

func TestSchema_AggregatesFailures(t *testing.T) {
	schema := validate.Schema{
		validate.F("title", validate.NotEmpty()),
		validate.F("description", validate.MinLength(5)),
		validate.F("address", validate.NotEmpty()),
	}

	_, err := schema.Check(lookupOf(map[string]string{
		"title":       "",
		"description": "four",
		"address":     "Champ de Mars, Paris",
	}))
	require.Error(t, err)

	assert.True(t, apperror.Is(err, apperror.CodeValidation))
	fields := apperror.Fields(err)
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "description")
}
