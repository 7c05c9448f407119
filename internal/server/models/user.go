package models

import "github.com/google/uuid"

// User is the materialized view of a user entity, reconstructed from the
// event log. It is never stored as a row; only its events are durable.
type User struct {
	ID                 uuid.UUID
	Login              string
	Email              string
	PasswordHash       string
	PasswordHashMethod string
	PasswordSalt       string
}
