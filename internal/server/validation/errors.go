// Package validation defines the closed set of user-facing validation errors
// and the stateless field validator for registration input.
package validation

// Kind discriminates the variants of Error. The set is closed; transports
// serialize it as the "kind" field.
type Kind string

const (
	KindFieldEmpty            Kind = "field-empty"
	KindFieldTooLong          Kind = "field-too-long"
	KindFieldTooShort         Kind = "field-too-short"
	KindFieldInvalidCharacter Kind = "field-contains-invalid-character"
	KindFieldInvalidFormat    Kind = "field-invalid-format"
	KindAlreadyExists         Kind = "already-exists"
	KindDuplicateInBatch      Kind = "duplicate-in-batch"
	KindNotFound              Kind = "not-found"
	KindInvalidPassword       Kind = "invalid-password"

	// KindUserNotActivated is reserved for an activation flow that is not
	// implemented; it is never emitted.
	KindUserNotActivated Kind = "user-not-activated"
)

// Error is one user-facing validation outcome. It is a value, not a Go error:
// business-rule violations are collected and returned in response bodies,
// never propagated as failures.
//
// Identity holds the field name for field-level errors and the offending
// identity value (login, email, or sign-in identity) for business-rule
// errors. The remaining fields parameterize specific kinds and are omitted
// when unused.
type Error struct {
	Kind     Kind   `json:"kind"`
	Identity string `json:"identity"`
	Size     uint64 `json:"size,omitempty"`
	Min      uint64 `json:"min,omitempty"`
	Max      uint64 `json:"max,omitempty"`
	Position *int   `json:"position,omitempty"`
	Char     string `json:"char,omitempty"`
	Allowed  string `json:"allowed,omitempty"`
}

func NewFieldEmpty(identity string) Error {
	return Error{Kind: KindFieldEmpty, Identity: identity}
}

func NewFieldTooLong(identity string, size, max uint64) Error {
	return Error{Kind: KindFieldTooLong, Identity: identity, Size: size, Max: max}
}

func NewFieldTooShort(identity string, size, min uint64) Error {
	return Error{Kind: KindFieldTooShort, Identity: identity, Size: size, Min: min}
}

func NewInvalidCharacter(identity string, position int, char rune, allowed string) Error {
	return Error{
		Kind:     KindFieldInvalidCharacter,
		Identity: identity,
		Position: &position,
		Char:     string(char),
		Allowed:  allowed,
	}
}

func NewInvalidFormat(identity string) Error {
	return Error{Kind: KindFieldInvalidFormat, Identity: identity}
}

func NewAlreadyExists(identity string) Error {
	return Error{Kind: KindAlreadyExists, Identity: identity}
}

func NewDuplicateInBatch(identity string) Error {
	return Error{Kind: KindDuplicateInBatch, Identity: identity}
}

func NewNotFound(identity string) Error {
	return Error{Kind: KindNotFound, Identity: identity}
}

func NewInvalidPassword(identity string) Error {
	return Error{Kind: KindInvalidPassword, Identity: identity}
}
