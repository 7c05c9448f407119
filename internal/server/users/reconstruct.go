// Package users materializes user entities from the property-change log.
// Reconstruction is re-derivable from the log alone; no stored row is
// authoritative.
package users

import (
	"github.com/google/uuid"

	"github.com/manis-auth/manis/internal/server/models"
)

// tracked lists the mandatory user properties. An entity missing any of them
// (never fully written) is excluded from reconstruction results.
var tracked = []string{
	models.PropertyLogin,
	models.PropertyEmail,
	models.PropertyPasswordHash,
	models.PropertyPasswordHashMethod,
	models.PropertyPasswordSalt,
}

// FromEvents folds events down to one materialized user per entity id: for
// each tracked property the value from the highest-sequence event wins.
// Events of other entity types are ignored. The result is ordered by each
// entity's first appearance in the input, so output is stable for a given
// event set.
func FromEvents(events []models.Event) []models.User {
	latest := make(map[uuid.UUID]map[string]models.Event)
	var order []uuid.UUID

	for _, e := range events {
		if e.EntityType != models.EntityTypeUser {
			continue
		}
		props, ok := latest[e.EntityID]
		if !ok {
			props = make(map[string]models.Event, len(tracked))
			latest[e.EntityID] = props
			order = append(order, e.EntityID)
		}
		if cur, ok := props[e.Property]; !ok || e.Sequence > cur.Sequence {
			props[e.Property] = e
		}
	}

	var result []models.User
	for _, id := range order {
		user, ok := assemble(id, latest[id])
		if !ok {
			continue
		}
		result = append(result, user)
	}
	return result
}

func assemble(id uuid.UUID, props map[string]models.Event) (models.User, bool) {
	for _, p := range tracked {
		if _, ok := props[p]; !ok {
			return models.User{}, false
		}
	}

	return models.User{
		ID:                 id,
		Login:              props[models.PropertyLogin].Value,
		Email:              props[models.PropertyEmail].Value,
		PasswordHash:       props[models.PropertyPasswordHash].Value,
		PasswordHashMethod: props[models.PropertyPasswordHashMethod].Value,
		PasswordSalt:       props[models.PropertyPasswordSalt].Value,
	}, true
}

// CreationEvents emits one event per tracked property for a new user, in a
// fixed order. Sequences are assigned by the log at append time.
func CreationEvents(user *models.User) []models.Event {
	values := map[string]string{
		models.PropertyLogin:              user.Login,
		models.PropertyEmail:              user.Email,
		models.PropertyPasswordHash:       user.PasswordHash,
		models.PropertyPasswordHashMethod: user.PasswordHashMethod,
		models.PropertyPasswordSalt:       user.PasswordSalt,
	}

	events := make([]models.Event, 0, len(tracked))
	for _, p := range tracked {
		events = append(events, models.Event{
			EntityID:   user.ID,
			EntityType: models.EntityTypeUser,
			Property:   p,
			Value:      values[p],
		})
	}
	return events
}
