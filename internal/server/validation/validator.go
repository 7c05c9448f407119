package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field names accepted by Validate.
const (
	FieldLogin    = "Login"
	FieldEmail    = "Email"
	FieldPassword = "Password"
)

// AllowedLoginChars is the full character set permitted in a login.
const AllowedLoginChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+-"

const (
	loginMinLen    = 3
	loginMaxLen    = 255
	passwordMinLen = 8
	passwordMaxLen = 512
	emailMinLen    = 5
	emailMaxLen    = 255
)

// FieldValidator performs stateless syntactic validation of registration
// fields. An empty (or whitespace-only) value yields a single field-empty
// error; otherwise every applicable rule is evaluated and all failures are
// collected.
type FieldValidator struct{}

func NewFieldValidator() *FieldValidator {
	return &FieldValidator{}
}

// Validate checks value against the rules for the named field and returns the
// collected violations, empty if the value is valid. An unknown field name is
// a programmer error and returns a non-nil error.
func (v *FieldValidator) Validate(field, value string) ([]Error, error) {
	switch field {
	case FieldLogin:
		return v.validateLogin(value), nil
	case FieldEmail:
		return v.validateEmail(value), nil
	case FieldPassword:
		return v.validatePassword(value), nil
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}
}

func (v *FieldValidator) validateLogin(value string) []Error {
	if strings.TrimSpace(value) == "" {
		return []Error{NewFieldEmpty(FieldLogin)}
	}

	var errs []Error
	errs = append(errs, checkLength(FieldLogin, value, loginMinLen, loginMaxLen)...)

	for i, r := range []rune(value) {
		if !strings.ContainsRune(AllowedLoginChars, r) {
			errs = append(errs, NewInvalidCharacter(FieldLogin, i, r, AllowedLoginChars))
			break
		}
	}

	return errs
}

func (v *FieldValidator) validatePassword(value string) []Error {
	if strings.TrimSpace(value) == "" {
		return []Error{NewFieldEmpty(FieldPassword)}
	}

	return checkLength(FieldPassword, value, passwordMinLen, passwordMaxLen)
}

func (v *FieldValidator) validateEmail(value string) []Error {
	if strings.TrimSpace(value) == "" {
		return []Error{NewFieldEmpty(FieldEmail)}
	}

	var errs []Error
	errs = append(errs, checkLength(FieldEmail, value, emailMinLen, emailMaxLen)...)

	if !isEmail(value) {
		errs = append(errs, NewInvalidFormat(FieldEmail))
	}

	return errs
}

func checkLength(field, value string, min, max uint64) []Error {
	size := uint64(utf8.RuneCountInString(value))
	switch {
	case size > max:
		return []Error{NewFieldTooLong(field, size, max)}
	case size < min:
		return []Error{NewFieldTooShort(field, size, min)}
	default:
		return nil
	}
}

// isEmail applies a minimal local@domain syntax check: a non-empty local
// part, and a domain containing at least one interior dot. It is not an RFC
// 5322 parser.
func isEmail(value string) bool {
	at := strings.LastIndex(value, "@")
	if at <= 0 || at == len(value)-1 {
		return false
	}
	local, domain := value[:at], value[at+1:]
	if strings.ContainsAny(local, " \t") || strings.ContainsAny(domain, " \t@") {
		return false
	}
	dot := strings.Index(domain, ".")
	if dot <= 0 || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}
