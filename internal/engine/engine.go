// Package engine authorizes user actions and turns them into domain commands.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/domain"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/sirupsen/logrus"
)

// Outcome identifies the entity an action produced or changed.
type Outcome struct {
	Kind   models.Kind `json:"kind"`
	ID     uuid.UUID   `json:"id"`
	GameID uuid.UUID   `json:"game_id"`
}

// ActionRecord is the log entry published for every committed action.
type ActionRecord struct {
	GameID        uuid.UUID       `json:"game_id"`
	ActorUserID   uuid.UUID       `json:"actor_user_id"`
	ActionType    string          `json:"action_type"`
	TargetKind    models.Kind     `json:"target_kind"`
	TargetID      uuid.UUID       `json:"target_id"`
	ActionPayload json.RawMessage `json:"action_payload"`
	Timestamp     int64           `json:"timestamp"` // epoch millis
}

// ActionLog receives committed actions.
type ActionLog interface {
	Publish(ctx context.Context, rec ActionRecord) error
}

type nopActionLog struct{}

func (nopActionLog) Publish(context.Context, ActionRecord) error { return nil }

// DeckSource produces the deck for dealing round rd of game g.
type DeckSource func(g *domain.Game, rd *domain.Round) []cards.Card

// ShuffledDeck shuffles a fresh deck. Seeded games use Seed plus the round number so every
// round of a replay deals the same cards.
func ShuffledDeck(g *domain.Game, rd *domain.Round) []cards.Card {
	deck := cards.NewDeck(g.WithNines())
	var seed *int64
	if s := g.Seed(); s != nil {
		v := *s + int64(rd.Number())
		seed = &v
	}
	cards.Shuffle(deck, seed)
	return deck
}

type Engine struct {
	store   domain.Store
	logger  *logrus.Logger
	actions ActionLog
	deck    DeckSource
	now     func() time.Time
}

type Option func(*Engine)

// WithDeck replaces the deck source.
func WithDeck(src DeckSource) Option {
	return func(e *Engine) { e.deck = src }
}

// WithActionLog publishes committed actions to l.
func WithActionLog(l ActionLog) Option {
	return func(e *Engine) { e.actions = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store domain.Store, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		logger:  logger,
		actions: nopActionLog{},
		deck:    ShuffledDeck,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) registry() *domain.Registry {
	return domain.NewRegistry(e.store, domain.WithClock(e.now))
}

// Handle authorizes a, applies its commands in a fresh registry and commits them. A
// conflict means another request changed the same aggregate; callers may retry the
// whole action.
func (e *Engine) Handle(ctx context.Context, a Action) (Outcome, error) {
	if a == nil {
		return Outcome{}, errs.Constraintf("missing action")
	}
	reg := e.registry()

	var out Outcome
	var err error
	switch a := a.(type) {
	case LobbyAction:
		out, err = e.handleLobby(ctx, reg, a)
	case GameAction:
		out, err = e.handleGame(ctx, reg, a)
	case RoundAction:
		out, err = e.handleRound(ctx, reg, a)
	case HandAction:
		out, err = e.handleHand(ctx, reg, a)
	case TrickAction:
		out, err = e.handleTrick(ctx, reg, a)
	default:
		err = fmt.Errorf("unsupported action %T", a)
	}
	if err == nil {
		err = reg.Commit(ctx)
	}

	fields := logrus.Fields{
		"action": a.Name(),
		"user":   a.Actor().Username,
	}
	if err != nil {
		e.logger.WithFields(fields).WithError(err).Info("action rejected")
		return Outcome{}, err
	}
	fields["game_id"] = out.GameID
	fields["target"] = fmt.Sprintf("%s/%s", out.Kind, out.ID)
	e.logger.WithFields(fields).Info("action applied")

	e.publish(ctx, a, out)
	return out, nil
}

// View runs fn against a closed registry: fn may traverse the model graph, but Execute
// and Commit return domain.ErrClosed.
func (e *Engine) View(ctx context.Context, fn func(*domain.Registry) error) error {
	reg := e.registry()
	reg.Close()
	return fn(reg)
}

func (e *Engine) publish(ctx context.Context, a Action, out Outcome) {
	payload, err := json.Marshal(a)
	if err != nil {
		e.logger.WithError(err).Warn("failed to encode action payload")
		return
	}
	rec := ActionRecord{
		GameID:        out.GameID,
		ActorUserID:   a.Actor().UserID,
		ActionType:    a.Name(),
		TargetKind:    out.Kind,
		TargetID:      out.ID,
		ActionPayload: payload,
		Timestamp:     e.now().UnixMilli(),
	}
	if err := e.actions.Publish(ctx, rec); err != nil {
		e.logger.WithError(err).WithField("action", a.Name()).Warn("failed to publish action")
	}
}

func (e *Engine) handleLobby(ctx context.Context, reg *domain.Registry, a LobbyAction) (Outcome, error) {
	user, err := reg.User(ctx, a.Actor().UserID)
	if err != nil {
		return Outcome{}, err
	}
	switch a := a.(type) {
	case CreateGame:
		cmd := &domain.CreateGame{
			Creator:     user,
			PlayerLimit: a.PlayerLimit,
			RoundLimit:  a.RoundLimit,
			Seed:        a.Seed,
			WithNines:   a.WithNines,
		}
		if err := reg.Execute(ctx, cmd); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: models.KindGame, ID: cmd.Game.ID(), GameID: cmd.Game.ID()}, nil

	case JoinGame:
		g, err := reg.Game(ctx, a.GameID)
		if err != nil {
			return Outcome{}, err
		}
		cmd := &domain.SeatPlayer{Game: g, User: user, Seat: a.Seat}
		if err := reg.Execute(ctx, cmd); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: models.KindPlayer, ID: cmd.Player.ID(), GameID: g.ID()}, nil

	case LeaveGame:
		g, err := reg.Game(ctx, a.GameID)
		if err != nil {
			return Outcome{}, err
		}
		if g.CreatorID() == user.ID() {
			return Outcome{}, errs.Unauthorizedf("the creator cannot leave game %s", g.ID())
		}
		p, err := g.PlayerForUser(ctx, user.ID())
		if err != nil {
			return Outcome{}, err
		}
		if p == nil {
			return Outcome{}, errs.NotFoundf("%s is not seated at game %s", user.Username(), g.ID())
		}
		if err := reg.Execute(ctx, &domain.UnseatPlayer{Player: p}); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: models.KindGame, ID: g.ID(), GameID: g.ID()}, nil
	}
	return Outcome{}, fmt.Errorf("unsupported lobby action %T", a)
}

func (e *Engine) handleGame(ctx context.Context, reg *domain.Registry, a GameAction) (Outcome, error) {
	switch a := a.(type) {
	case ExecuteGameOperation:
		g, err := reg.Game(ctx, a.GameID)
		if err != nil {
			return Outcome{}, err
		}
		if g.CreatorID() != a.By.UserID && !a.By.IsAdmin() {
			return Outcome{}, errs.Unauthorizedf("only the creator may %s game %s", a.Op, g.ID())
		}
		var cmd domain.Command
		switch a.Op {
		case GameStart:
			cmd = &domain.StartGame{Game: g}
		case GameEnd:
			cmd = &domain.FinishGame{Game: g}
		default:
			return Outcome{}, errs.Constraintf("unknown game operation %q", a.Op)
		}
		if err := reg.Execute(ctx, cmd); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: models.KindGame, ID: g.ID(), GameID: g.ID()}, nil
	}
	return Outcome{}, fmt.Errorf("unsupported game action %T", a)
}

func (e *Engine) handleRound(ctx context.Context, reg *domain.Registry, a RoundAction) (Outcome, error) {
	switch a := a.(type) {
	case ExecuteRoundOperation:
		rd, err := reg.Round(ctx, a.RoundID)
		if err != nil {
			return Outcome{}, err
		}
		if a.Op != RoundDeal {
			return Outcome{}, errs.Constraintf("unknown round operation %q", a.Op)
		}
		dealer, err := rd.Dealer(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if dealer.UserID() != a.By.UserID {
			return Outcome{}, errs.Unauthorizedf("only the dealer may deal round %d", rd.Number())
		}
		g, err := rd.Game(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if err := reg.Execute(ctx, &domain.DealRound{Round: rd, Deck: e.deck(g, rd)}); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: models.KindRound, ID: rd.ID(), GameID: g.ID()}, nil
	}
	return Outcome{}, fmt.Errorf("unsupported round action %T", a)
}

func (e *Engine) handleHand(ctx context.Context, reg *domain.Registry, a HandAction) (Outcome, error) {
	var handID uuid.UUID
	switch a := a.(type) {
	case PlayCard:
		handID = a.HandID
	case DeclareCall:
		handID = a.HandID
	}
	h, err := reg.Hand(ctx, handID)
	if err != nil {
		return Outcome{}, err
	}
	p, err := h.Player(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if p.UserID() != a.Actor().UserID {
		return Outcome{}, errs.Unauthorizedf("hand %s belongs to another player", h.ID())
	}
	rd, err := h.Round(ctx)
	if err != nil {
		return Outcome{}, err
	}

	switch a := a.(type) {
	case PlayCard:
		t, err := rd.CurrentTrick(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if t != nil && t.State() == models.TrickOpen && t.OpenIndex() != h.Index() {
			return Outcome{}, errs.Unauthorizedf("it is not the turn of hand %d", h.Index())
		}
		cmd := &domain.PlayCard{Hand: h, Card: a.Card}
		if err := reg.Execute(ctx, cmd); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: models.KindTurn, ID: cmd.Turn.ID(), GameID: rd.GameID()}, nil

	case DeclareCall:
		cmd := &domain.DeclareCall{Hand: h, Type: a.Type, Description: a.Description}
		if err := reg.Execute(ctx, cmd); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: models.KindCall, ID: cmd.Call.ID(), GameID: rd.GameID()}, nil
	}
	return Outcome{}, fmt.Errorf("unsupported hand action %T", a)
}

func (e *Engine) handleTrick(ctx context.Context, reg *domain.Registry, a TrickAction) (Outcome, error) {
	switch a := a.(type) {
	case ExecuteTrickOperation:
		t, err := reg.Trick(ctx, a.TrickID)
		if err != nil {
			return Outcome{}, err
		}
		if a.Op != TrickEvaluate {
			return Outcome{}, errs.Constraintf("unknown trick operation %q", a.Op)
		}
		rd, err := t.Round(ctx)
		if err != nil {
			return Outcome{}, err
		}
		g, err := rd.Game(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if err := requireSeated(ctx, g, rd, a.By); err != nil {
			return Outcome{}, err
		}
		if err := e.evaluate(ctx, reg, g, rd, t); err != nil {
			return Outcome{}, err
		}
		return Outcome{Kind: models.KindTrick, ID: t.ID(), GameID: g.ID()}, nil
	}
	return Outcome{}, fmt.Errorf("unsupported trick action %T", a)
}

// evaluate closes t and moves the game on: the winner leads the next trick, the last
// trick closes the round and the last round finishes the game.
func (e *Engine) evaluate(ctx context.Context, reg *domain.Registry, g *domain.Game, rd *domain.Round, t *domain.Trick) error {
	closeTrick := &domain.CloseTrick{Trick: t}
	if err := reg.Execute(ctx, closeTrick); err != nil {
		return err
	}
	limit, err := rd.TrickLimit(ctx)
	if err != nil {
		return err
	}
	if rd.TrickCount() < limit {
		return reg.Execute(ctx, &domain.OpenTrick{Round: rd, Lead: closeTrick.Winner.Index()})
	}
	if err := reg.Execute(ctx, &domain.CloseRound{Round: rd}); err != nil {
		return err
	}
	if g.RoundLimit() > 0 && g.RoundCount() >= g.RoundLimit() {
		return reg.Execute(ctx, &domain.FinishGame{Game: g})
	}
	return reg.Execute(ctx, &domain.OpenRound{Game: g})
}

func requireSeated(ctx context.Context, g *domain.Game, rd *domain.Round, by Principal) error {
	p, err := g.PlayerForUser(ctx, by.UserID)
	if err != nil {
		return err
	}
	if p != nil {
		h, err := rd.HandForPlayer(ctx, p.ID())
		if err != nil {
			return err
		}
		if h != nil {
			return nil
		}
	}
	return errs.Unauthorizedf("%s does not play round %d", by.Username, rd.Number())
}
