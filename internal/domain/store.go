// Package domain builds request-scoped model graphs over persisted entities and
// applies the commands that advance a game.
package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
)

// Store loads and saves entities.
//
// Load returns an errs.NotFound error for unknown ids. Save writes all entities
// atomically: an entity with version 0 is inserted, any other entity must match the
// stored version, otherwise Save fails with errs.Conflict and writes nothing. On success
// the version of every saved entity is incremented in place.
type Store interface {
	Load(ctx context.Context, kind models.Kind, id uuid.UUID) (models.Entity, error)
	Save(ctx context.Context, entities ...models.Entity) error
}

// UserDirectory resolves users by their unique name.
type UserDirectory interface {
	FindUserByName(ctx context.Context, username string) (*models.User, error)
}
