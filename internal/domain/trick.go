package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
)

type Trick struct {
	reg *Registry
	e   *models.Trick
}

func (t *Trick) ID() uuid.UUID         { return t.e.ID }
func (t *Trick) RoundID() uuid.UUID    { return t.e.RoundID }
func (t *Trick) Number() int           { return t.e.Number }
func (t *Trick) StartedAt() *time.Time { return t.e.StartedAt }
func (t *Trick) EndedAt() *time.Time   { return t.e.EndedAt }
func (t *Trick) Demand() cards.Demand  { return t.e.Demand }
func (t *Trick) OpenIndex() int        { return t.e.OpenIndex }
func (t *Trick) LeadIndex() int        { return t.e.LeadIndex }
func (t *Trick) Cards() []cards.Card   { return slices.Clone(t.e.Cards) }
func (t *Trick) WinnerID() *uuid.UUID  { return t.e.WinnerID }

// State derives the trick state: open while seats are missing, awaiting evaluation once
// every seat played and closed when a winner is set.
func (t *Trick) State() models.TrickState {
	switch {
	case t.e.WinnerID != nil:
		return models.TrickClosed
	case len(t.e.Cards) >= Seats:
		return models.TrickAwaiting
	}
	return models.TrickOpen
}

// HandIndexOf returns the hand index that played the i-th card of the trick.
func (t *Trick) HandIndexOf(i int) int {
	return (t.e.LeadIndex + i) % Seats
}

func (t *Trick) Round(ctx context.Context) (*Round, error) {
	return t.reg.Round(ctx, t.e.RoundID)
}

func (t *Trick) Turns(ctx context.Context) ([]*Turn, error) {
	return lookupAll(ctx, t.reg, t.reg.turns, models.KindTurn, t.e.TurnIDs)
}

// Winner returns the winning hand, or nil while the trick is not closed.
func (t *Trick) Winner(ctx context.Context) (*Hand, error) {
	if t.e.WinnerID == nil {
		return nil, nil
	}
	return t.reg.Hand(ctx, *t.e.WinnerID)
}

// Turn is one played card.
type Turn struct {
	reg *Registry
	e   *models.Turn
}

func (t *Turn) ID() uuid.UUID      { return t.e.ID }
func (t *Turn) Number() int        { return t.e.Number }
func (t *Turn) Card() cards.Card   { return t.e.Card }
func (t *Turn) HandID() uuid.UUID  { return t.e.HandID }
func (t *Turn) TrickID() uuid.UUID { return t.e.TrickID }
func (t *Turn) CreatedAt() time.Time {
	return t.e.CreatedAt
}

func (t *Turn) Round(ctx context.Context) (*Round, error) {
	return t.reg.Round(ctx, t.e.RoundID)
}

func (t *Turn) Hand(ctx context.Context) (*Hand, error) {
	return t.reg.Hand(ctx, t.e.HandID)
}

func (t *Turn) Trick(ctx context.Context) (*Trick, error) {
	return t.reg.Trick(ctx, t.e.TrickID)
}
