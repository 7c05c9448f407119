// Package models contains the persistent records of the identity store: the
// append-only property-change event and the materialized user view computed
// from it.
package models

import "github.com/google/uuid"

// EntityTypeUser tags events describing a user entity. It is the only entity
// type currently written to the log.
const EntityTypeUser = "User"

// Tracked user properties, one event per property at creation time.
const (
	PropertyLogin              = "Login"
	PropertyEmail              = "Email"
	PropertyPasswordHash       = "PasswordHash"
	PropertyPasswordHashMethod = "PasswordHashMethod"
	PropertyPasswordSalt       = "PasswordSalt"
)

// Event is one immutable record of the append-only log: a single property of
// a single entity taking on a new value. Sequence is assigned at insert time
// and totally orders all writes; for a given (EntityID, EntityType, Property)
// the event with the greatest Sequence is authoritative.
type Event struct {
	Sequence   int64
	EntityID   uuid.UUID
	EntityType string
	Property   string
	Value      string
}
