package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
	"github.com/samber/lo"
)

type Round struct {
	reg *Registry
	e   *models.Round
}

func (r *Round) ID() uuid.UUID            { return r.e.ID }
func (r *Round) GameID() uuid.UUID        { return r.e.GameID }
func (r *Round) Number() int              { return r.e.Number }
func (r *Round) State() models.RoundState { return r.e.State }
func (r *Round) DealerID() uuid.UUID      { return r.e.DealerID }
func (r *Round) StartedAt() *time.Time    { return r.e.StartedAt }
func (r *Round) EndedAt() *time.Time      { return r.e.EndedAt }
func (r *Round) TrickCount() int          { return len(r.e.TrickIDs) }

func (r *Round) Game(ctx context.Context) (*Game, error) {
	return r.reg.Game(ctx, r.e.GameID)
}

func (r *Round) Dealer(ctx context.Context) (*Player, error) {
	return r.reg.Player(ctx, r.e.DealerID)
}

// ActiveHands returns the hands in play order. It is empty until the round is dealt.
func (r *Round) ActiveHands(ctx context.Context) ([]*Hand, error) {
	return lookupAll(ctx, r.reg, r.reg.hands, models.KindHand, r.e.HandIDs)
}

// HandForPlayer returns the hand of player, or nil when the player sits out.
func (r *Round) HandForPlayer(ctx context.Context, playerID uuid.UUID) (*Hand, error) {
	hands, err := r.ActiveHands(ctx)
	if err != nil {
		return nil, err
	}
	h, _ := lo.Find(hands, func(h *Hand) bool { return h.PlayerID() == playerID })
	return h, nil
}

func (r *Round) Tricks(ctx context.Context) ([]*Trick, error) {
	return lookupAll(ctx, r.reg, r.reg.tricks, models.KindTrick, r.e.TrickIDs)
}

// CurrentTrick returns the latest trick, or nil when none was opened yet.
func (r *Round) CurrentTrick(ctx context.Context) (*Trick, error) {
	if len(r.e.TrickIDs) == 0 {
		return nil, nil
	}
	return r.reg.Trick(ctx, r.e.TrickIDs[len(r.e.TrickIDs)-1])
}

// TrickLimit is the number of tricks the round lasts.
func (r *Round) TrickLimit(ctx context.Context) (int, error) {
	g, err := r.Game(ctx)
	if err != nil {
		return 0, err
	}
	return cards.HandSize(g.WithNines()), nil
}

func (r *Round) Calls(ctx context.Context) ([]*Call, error) {
	return lookupAll(ctx, r.reg, r.reg.calls, models.KindCall, r.e.CallIDs)
}

// Declared returns the calls made so far together with the caller's party.
func (r *Round) Declared(ctx context.Context) ([]scoring.Declared, error) {
	calls, err := r.Calls(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]scoring.Declared, 0, len(calls))
	for _, c := range calls {
		h, err := c.Hand(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, scoring.Declared{Party: h.Party(), Type: c.Type()})
	}
	return out, nil
}

// Result returns the settlement, or nil while the round is not closed.
func (r *Round) Result(ctx context.Context) (*Result, error) {
	if r.e.ResultID == nil {
		return nil, nil
	}
	return r.reg.Result(ctx, *r.e.ResultID)
}

// Hand is the holding of one player in one round.
type Hand struct {
	reg *Registry
	e   *models.Hand
}

func (h *Hand) ID() uuid.UUID         { return h.e.ID }
func (h *Hand) RoundID() uuid.UUID    { return h.e.RoundID }
func (h *Hand) PlayerID() uuid.UUID   { return h.e.PlayerID }
func (h *Hand) Index() int            { return h.e.Index }
func (h *Hand) Party() scoring.Party  { return h.e.Party }
func (h *Hand) Dealt() []cards.Card   { return slices.Clone(h.e.Dealt) }
func (h *Hand) Cards() []cards.Card   { return slices.Clone(h.e.Cards) }
func (h *Hand) Has(c cards.Card) bool { return cards.Index(h.e.Cards, c) >= 0 }

// PlayedCount is the number of cards the hand has played.
func (h *Hand) PlayedCount() int {
	return len(h.e.Dealt) - len(h.e.Cards)
}

func (h *Hand) Round(ctx context.Context) (*Round, error) {
	return h.reg.Round(ctx, h.e.RoundID)
}

func (h *Hand) Player(ctx context.Context) (*Player, error) {
	return h.reg.Player(ctx, h.e.PlayerID)
}

// Calls returns the calls this hand made.
func (h *Hand) Calls(ctx context.Context) ([]*Call, error) {
	r, err := h.Round(ctx)
	if err != nil {
		return nil, err
	}
	calls, err := r.Calls(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(calls, func(c *Call, _ int) bool { return c.HandID() == h.ID() }), nil
}
