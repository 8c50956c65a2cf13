package domain

import (
	"context"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
)

type Call struct {
	reg *Registry
	e   *models.Call
}

func (c *Call) ID() uuid.UUID          { return c.e.ID }
func (c *Call) HandID() uuid.UUID      { return c.e.HandID }
func (c *Call) Type() scoring.CallType { return c.e.Type }
func (c *Call) PlayedCount() int       { return c.e.PlayedCount }
func (c *Call) Description() string    { return c.e.Description }

func (c *Call) Round(ctx context.Context) (*Round, error) {
	return c.reg.Round(ctx, c.e.RoundID)
}

func (c *Call) Hand(ctx context.Context) (*Hand, error) {
	return c.reg.Hand(ctx, c.e.HandID)
}

// Result is the settlement of a round.
type Result struct {
	reg *Registry
	e   *models.Result
}

func (r *Result) ID() uuid.UUID             { return r.e.ID }
func (r *Result) ReEyes() int               { return r.e.ReEyes }
func (r *Result) KontraEyes() int           { return r.e.KontraEyes }
func (r *Result) ReTricks() int             { return r.e.ReTricks }
func (r *Result) KontraTricks() int         { return r.e.KontraTricks }
func (r *Result) Winner() scoring.Party     { return r.e.Winner }
func (r *Result) Value() int                { return r.e.Value }
func (r *Result) Reasons() []scoring.Reason { return slices.Clone(r.e.Reasons) }

// Scores maps player ids to the points they gained or lost.
func (r *Result) Scores() map[uuid.UUID]int {
	return maps.Clone(r.e.Scores)
}

func (r *Result) Round(ctx context.Context) (*Round, error) {
	return r.reg.Round(ctx, r.e.RoundID)
}
