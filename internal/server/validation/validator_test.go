package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(errs []Error) []Kind {
	var out []Kind
	for _, e := range errs {
		out = append(out, e.Kind)
	}
	return out
}

func TestValidate_UnknownField(t *testing.T) {
	v := NewFieldValidator()
	_, err := v.Validate("Nickname", "whatever")
	require.Error(t, err)
}

func TestValidate_Login(t *testing.T) {
	v := NewFieldValidator()

	tests := []struct {
		name  string
		value string
		want  []Kind
	}{
		{"valid", "alice1", nil},
		{"valid with plus and dash", "a+b-c", nil},
		{"empty", "", []Kind{KindFieldEmpty}},
		{"whitespace only", "   ", []Kind{KindFieldEmpty}},
		{"too short", "ab", []Kind{KindFieldTooShort}},
		{"too long", strings.Repeat("a", 256), []Kind{KindFieldTooLong}},
		{"invalid character", "alice!", []Kind{KindFieldInvalidCharacter}},
		{"short and invalid character both reported", "a!", []Kind{KindFieldTooShort, KindFieldInvalidCharacter}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := v.Validate(FieldLogin, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(errs))
		})
	}
}

func TestValidate_LoginInvalidCharacterParams(t *testing.T) {
	v := NewFieldValidator()

	errs, err := v.Validate(FieldLogin, "ali ce")
	require.NoError(t, err)
	require.Len(t, errs, 1)

	e := errs[0]
	assert.Equal(t, KindFieldInvalidCharacter, e.Kind)
	assert.Equal(t, FieldLogin, e.Identity)
	require.NotNil(t, e.Position)
	assert.Equal(t, 3, *e.Position)
	assert.Equal(t, " ", e.Char)
	assert.Equal(t, AllowedLoginChars, e.Allowed)
}

func TestValidate_Password(t *testing.T) {
	v := NewFieldValidator()

	tests := []struct {
		name  string
		value string
		want  []Kind
	}{
		{"valid", "longenough1", nil},
		{"exactly at floor", "12345678", nil},
		{"empty", "", []Kind{KindFieldEmpty}},
		{"too short", "1234567", []Kind{KindFieldTooShort}},
		{"too long", strings.Repeat("p", 513), []Kind{KindFieldTooLong}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := v.Validate(FieldPassword, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(errs))
		})
	}
}

func TestValidate_PasswordMinReportsEnforcedFloor(t *testing.T) {
	v := NewFieldValidator()

	errs, err := v.Validate(FieldPassword, "short")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, uint64(8), errs[0].Min)
	assert.Equal(t, uint64(5), errs[0].Size)
}

func TestValidate_Email(t *testing.T) {
	v := NewFieldValidator()

	tests := []struct {
		name  string
		value string
		want  []Kind
	}{
		{"valid", "a@example.com", nil},
		{"empty", "", []Kind{KindFieldEmpty}},
		{"no at sign", "example.com", []Kind{KindFieldInvalidFormat}},
		{"no dot in domain", "a@examplecom", []Kind{KindFieldInvalidFormat}},
		{"empty local part", "@example.com", []Kind{KindFieldInvalidFormat}},
		{"trailing dot in domain", "a@example.", []Kind{KindFieldInvalidFormat}},
		{"too short and bad format both reported", "a@b", []Kind{KindFieldTooShort, KindFieldInvalidFormat}},
		{"too long", strings.Repeat("a", 250) + "@ex.com", []Kind{KindFieldTooLong}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := v.Validate(FieldEmail, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(errs))
		})
	}
}
