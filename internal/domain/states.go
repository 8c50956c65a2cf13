package domain

import (
	"context"

	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/samber/lo"
)

// transitions lists the legal successor states of each state.
type transitions[S ~string] map[S][]S

func (t transitions[S]) check(what string, from, to S) error {
	if lo.Contains(t[from], to) {
		return nil
	}
	return errs.InvalidStatef("%s cannot move from %s to %s", what, from, to)
}

var gameTransitions = transitions[models.GameState]{
	models.GameLobby:   {models.GameRunning},
	models.GameRunning: {models.GameFinished},
}

var roundTransitions = transitions[models.RoundState]{
	models.RoundDealing:    {models.RoundInProgress},
	models.RoundInProgress: {models.RoundClosed},
}

var trickTransitions = transitions[models.TrickState]{
	models.TrickOpen:     {models.TrickAwaiting},
	models.TrickAwaiting: {models.TrickClosed},
}

// requirePlaying fails unless the game of rd is running and rd itself is in progress.
func requirePlaying(ctx context.Context, rd *Round) error {
	g, err := rd.Game(ctx)
	if err != nil {
		return err
	}
	if err := requireGame(g, models.GameRunning); err != nil {
		return err
	}
	return requireRound(rd, models.RoundInProgress)
}

// requireGame fails unless g is in state s.
func requireGame(g *Game, s models.GameState) error {
	if g.State() != s {
		return errs.InvalidStatef("game %s is %s, not %s", g.ID(), g.State(), s)
	}
	return nil
}

func requireRound(r *Round, s models.RoundState) error {
	if r.State() != s {
		return errs.InvalidStatef("round %d is %s, not %s", r.Number(), r.State(), s)
	}
	return nil
}

func requireTrick(t *Trick, s models.TrickState) error {
	if t.State() != s {
		return errs.InvalidStatef("trick %d is %s, not %s", t.Number(), t.State(), s)
	}
	return nil
}
