package eventlog

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/manis-auth/manis/internal/common"
	"github.com/manis-auth/manis/internal/server/models"
)

// InMemoryRepository implements the event-log contract without durable
// storage. It serves tests and single-process setups behind the same
// interface as the Postgres repository.
type InMemoryRepository struct {
	mu      sync.Mutex
	seq     int64
	events  []models.Event
	batches map[uuid.UUID][]byte
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{batches: make(map[uuid.UUID][]byte)}
}

func (r *InMemoryRepository) Append(ctx context.Context, events []models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.appendLocked(events)
	return nil
}

func (r *InMemoryRepository) appendLocked(events []models.Event) {
	for _, e := range events {
		r.seq++
		e.Sequence = r.seq
		r.events = append(r.events, e)
	}
}

func (r *InMemoryRepository) Scan(ctx context.Context, entityType, property string) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Event
	for _, e := range r.events {
		if e.EntityType != entityType {
			continue
		}
		if property != "" && e.Property != property {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *InMemoryRepository) FindEntityIDs(ctx context.Context, entityType string, properties, values []string) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []uuid.UUID
	for _, e := range r.events {
		if e.EntityType != entityType {
			continue
		}
		if !slices.Contains(properties, e.Property) || !slices.Contains(values, e.Value) {
			continue
		}
		if !slices.Contains(ids, e.EntityID) {
			ids = append(ids, e.EntityID)
		}
	}
	return ids, nil
}

func (r *InMemoryRepository) LoadEvents(ctx context.Context, entityType string, entityIDs []uuid.UUID) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Event
	for _, e := range r.events {
		if e.EntityType == entityType && slices.Contains(entityIDs, e.EntityID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) FindBatchResponse(ctx context.Context, key uuid.UUID) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	response, ok := r.batches[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return response, nil
}

func (r *InMemoryRepository) CommitBatch(ctx context.Context, key uuid.UUID, response []byte, events []models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.batches[key]; ok {
		return common.ErrorBatchExists
	}

	r.batches[key] = response
	r.appendLocked(events)
	return nil
}
