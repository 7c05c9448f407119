// Package eventlog stores the append-only property-change log that the
// identity store is reconstructed from. Events are durable and ordered; no
// event is ever mutated or removed.
package eventlog

import (
	"context"

	"github.com/google/uuid"

	"github.com/manis-auth/manis/internal/server/models"
)

// Repository is the contract of the event log.
//
// Append and CommitBatch assign each event a monotonically increasing
// sequence at insert time. All read methods return events ordered by
// sequence. Failures are storage I/O errors only; business outcomes never
// surface here.
type Repository interface {
	// Append durably writes the given events as one unit.
	Append(ctx context.Context, events []models.Event) error

	// Scan returns all events of an entity type, optionally restricted to a
	// single property (empty property means all properties).
	Scan(ctx context.Context, entityType, property string) ([]models.Event, error)

	// FindEntityIDs returns the distinct ids of entities that have any event
	// on one of the given properties with one of the given values. This is
	// the indexed identity-lookup path: cost scales with matching events,
	// not the full log.
	FindEntityIDs(ctx context.Context, entityType string, properties, values []string) ([]uuid.UUID, error)

	// LoadEvents returns every event of the given entities.
	LoadEvents(ctx context.Context, entityType string, entityIDs []uuid.UUID) ([]models.Event, error)

	// FindBatchResponse returns the response recorded for an already
	// committed registration batch, or common.ErrorNotFound.
	FindBatchResponse(ctx context.Context, key uuid.UUID) ([]byte, error)

	// CommitBatch records the batch key with its serialized response and
	// appends all events in a single durable unit. If the key was already
	// committed (a concurrent duplicate submission), it returns
	// common.ErrorBatchExists and writes nothing.
	CommitBatch(ctx context.Context, key uuid.UUID, response []byte, events []models.Event) error
}
