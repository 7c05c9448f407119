// Package common defines shared constants and sentinel errors used across
// the layers of Manis. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// repository-level errors
	ErrorNotFound    = errors.New("not found")
	ErrorBatchExists = errors.New("batch already committed")

	// service-level errors
	ErrorInternal = errors.New("internal error")

	// ErrorAmbiguousIdentity reports that one identity resolved to more than
	// one materialized user, a violation of the uniqueness invariant.
	ErrorAmbiguousIdentity = errors.New("ambiguous identity")

	// auth errors (invalid or malformed token)
	ErrInvalidToken = errors.New("invalid token")
)
