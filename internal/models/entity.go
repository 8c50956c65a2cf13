// Package models holds the persisted records of the game. Records are plain data owned by
// the storage layer; behaviour lives in the domain package.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind names an entity type. It doubles as the storage discriminator.
type Kind string

const (
	KindUser   Kind = "user"
	KindGame   Kind = "game"
	KindPlayer Kind = "player"
	KindRound  Kind = "round"
	KindHand   Kind = "hand"
	KindTrick  Kind = "trick"
	KindTurn   Kind = "turn"
	KindCall   Kind = "call"
	KindResult Kind = "result"
)

// Kinds lists every entity kind.
var Kinds = []Kind{KindUser, KindGame, KindPlayer, KindRound, KindHand, KindTrick, KindTurn, KindCall, KindResult}

// Record is the bookkeeping every persisted entity carries. Version is the optimistic
// lock counter: zero means the entity has never been stored.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta gives access to the record of an entity.
func (r *Record) Meta() *Record {
	return r
}

// Entity is implemented by every persisted record type.
type Entity interface {
	Kind() Kind
	Meta() *Record
}

// New returns an empty entity of the given kind, ready for decoding.
func New(kind Kind) (Entity, error) {
	switch kind {
	case KindUser:
		return &User{}, nil
	case KindGame:
		return &Game{}, nil
	case KindPlayer:
		return &Player{}, nil
	case KindRound:
		return &Round{}, nil
	case KindHand:
		return &Hand{}, nil
	case KindTrick:
		return &Trick{}, nil
	case KindTurn:
		return &Turn{}, nil
	case KindCall:
		return &Call{}, nil
	case KindResult:
		return &Result{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}
