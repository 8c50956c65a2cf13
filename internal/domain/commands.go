package domain

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
	"github.com/samber/lo"
)

// Command is an authorized mutation of the model graph. Commands are applied through
// Registry.Execute; they validate before they modify anything.
type Command interface {
	apply(ctx context.Context, r *Registry) error
}

// CreateGame opens a new game in the lobby and seats its creator at seat 0.
type CreateGame struct {
	Creator     *User
	PlayerLimit int
	RoundLimit  int
	Seed        *int64
	WithNines   bool

	Game *Game
}

func (c *CreateGame) apply(ctx context.Context, r *Registry) error {
	if c.PlayerLimit < MinPlayers || c.PlayerLimit > MaxPlayers {
		return errs.Constraintf("player limit must be between %d and %d, got %d", MinPlayers, MaxPlayers, c.PlayerLimit)
	}
	if c.RoundLimit < 0 {
		return errs.Constraintf("round limit must not be negative")
	}
	e := &models.Game{
		CreatorID:   c.Creator.ID(),
		PlayerLimit: c.PlayerLimit,
		RoundLimit:  c.RoundLimit,
		Seed:        c.Seed,
		WithNines:   c.WithNines,
		State:       models.GameLobby,
	}
	if err := r.add(e); err != nil {
		return err
	}
	c.Game = r.games.Create(e)
	return (&SeatPlayer{Game: c.Game, User: c.Creator, Seat: 0}).apply(ctx, r)
}

// SeatPlayer puts a user on a free seat of a game in the lobby.
type SeatPlayer struct {
	Game *Game
	User *User
	Seat int

	Player *Player
}

func (c *SeatPlayer) apply(ctx context.Context, r *Registry) error {
	g := c.Game
	if err := requireGame(g, models.GameLobby); err != nil {
		return err
	}
	if g.PlayerCount() >= g.PlayerLimit() {
		return errs.InvalidStatef("game %s is full", g.ID())
	}
	if c.Seat < 0 || c.Seat >= g.PlayerLimit() {
		return errs.Constraintf("seat %d is outside 0..%d", c.Seat, g.PlayerLimit()-1)
	}
	taken, err := g.PlayerBySeat(ctx, c.Seat)
	if err != nil {
		return err
	}
	if taken != nil {
		return errs.Constraintf("seat %d is taken", c.Seat)
	}
	seated, err := g.PlayerForUser(ctx, c.User.ID())
	if err != nil {
		return err
	}
	if seated != nil {
		return errs.Constraintf("%s already sits at seat %d", c.User.Username(), seated.Seat())
	}

	e := &models.Player{GameID: g.ID(), UserID: c.User.ID(), Seat: c.Seat}
	if err := r.add(e); err != nil {
		return err
	}
	g.e.PlayerIDs = append(g.e.PlayerIDs, e.ID)
	r.touch(g.e)
	c.Player = r.players.Create(e)
	return nil
}

// UnseatPlayer removes a player from a game that has not started.
type UnseatPlayer struct {
	Player *Player
}

func (c *UnseatPlayer) apply(ctx context.Context, r *Registry) error {
	g, err := c.Player.Game(ctx)
	if err != nil {
		return err
	}
	if err := requireGame(g, models.GameLobby); err != nil {
		return err
	}
	g.e.PlayerIDs = slices.DeleteFunc(g.e.PlayerIDs, func(id uuid.UUID) bool { return id == c.Player.ID() })
	r.touch(g.e)
	return nil
}

// StartGame moves a game from the lobby to running and opens its first round.
type StartGame struct {
	Game *Game

	Round *Round
}

func (c *StartGame) apply(ctx context.Context, r *Registry) error {
	g := c.Game
	if err := gameTransitions.check("game", g.State(), models.GameRunning); err != nil {
		return err
	}
	if g.PlayerCount() < MinPlayers {
		return errs.InvalidStatef("game needs %d players, has %d", MinPlayers, g.PlayerCount())
	}
	now := r.now()
	g.e.State = models.GameRunning
	g.e.StartedAt = &now
	r.touch(g.e)

	open := &OpenRound{Game: g}
	if err := open.apply(ctx, r); err != nil {
		return err
	}
	c.Round = open.Round
	return nil
}

// OpenRound starts the next round of a running game. The deal passes to the next seat;
// the first round is dealt by the lowest seat.
type OpenRound struct {
	Game *Game

	Round *Round
}

func (c *OpenRound) apply(ctx context.Context, r *Registry) error {
	g := c.Game
	if err := requireGame(g, models.GameRunning); err != nil {
		return err
	}
	prev, err := g.CurrentRound(ctx)
	if err != nil {
		return err
	}
	if prev != nil && prev.State() != models.RoundClosed {
		return errs.InvalidStatef("round %d is still %s", prev.Number(), prev.State())
	}
	players, err := g.Players(ctx)
	if err != nil {
		return err
	}
	dealer := players[0]
	if prev != nil {
		last, err := prev.Dealer(ctx)
		if err != nil {
			return err
		}
		dealer = players[(lo.IndexOf(players, last)+1)%len(players)]
		last.e.Dealer = false
		r.touch(last.e)
	}
	dealer.e.Dealer = true
	r.touch(dealer.e)

	e := &models.Round{
		GameID:   g.ID(),
		Number:   g.RoundCount() + 1,
		State:    models.RoundDealing,
		DealerID: dealer.ID(),
	}
	if err := r.add(e); err != nil {
		return err
	}
	g.e.RoundIDs = append(g.e.RoundIDs, e.ID)
	r.touch(g.e)
	c.Round = r.rounds.Create(e)
	return nil
}

// DealRound hands out deck to the players of the round and opens the first trick, led
// by the hand after the dealer.
type DealRound struct {
	Round *Round
	Deck  []cards.Card
}

func (c *DealRound) apply(ctx context.Context, r *Registry) error {
	rd := c.Round
	if err := roundTransitions.check("round", rd.State(), models.RoundInProgress); err != nil {
		return err
	}
	g, err := rd.Game(ctx)
	if err != nil {
		return err
	}
	if err := requireGame(g, models.GameRunning); err != nil {
		return err
	}
	if want := cards.NewDeck(g.WithNines()); len(c.Deck) != len(want) {
		return errs.Constraintf("deck has %d cards, want %d", len(c.Deck), len(want))
	}
	if !cards.IsDeck(c.Deck, g.WithNines()) {
		return errs.Constraintf("deck does not hold every card exactly twice")
	}
	players, err := g.Players(ctx)
	if err != nil {
		return err
	}
	dealer, err := rd.Dealer(ctx)
	if err != nil {
		return err
	}

	order := playOrder(players, dealer)
	for i, holding := range cards.Deal(c.Deck, Seats) {
		e := &models.Hand{
			RoundID:  rd.ID(),
			PlayerID: order[i].ID(),
			Index:    i,
			Dealt:    holding,
			Cards:    slices.Clone(holding),
			Party:    scoring.PartyOf(holding),
		}
		if err := r.add(e); err != nil {
			return err
		}
		rd.e.HandIDs = append(rd.e.HandIDs, e.ID)
		r.hands.Create(e)
	}
	now := r.now()
	rd.e.State = models.RoundInProgress
	rd.e.StartedAt = &now
	r.touch(rd.e)

	return (&OpenTrick{Round: rd, Lead: 0}).apply(ctx, r)
}

// OpenTrick starts the next trick of a round, led by the hand at index Lead.
type OpenTrick struct {
	Round *Round
	Lead  int

	Trick *Trick
}

func (c *OpenTrick) apply(ctx context.Context, r *Registry) error {
	rd := c.Round
	if err := requirePlaying(ctx, rd); err != nil {
		return err
	}
	if c.Lead < 0 || c.Lead >= Seats {
		return errs.Constraintf("lead index %d is outside 0..%d", c.Lead, Seats-1)
	}
	cur, err := rd.CurrentTrick(ctx)
	if err != nil {
		return err
	}
	if cur != nil {
		if err := requireTrick(cur, models.TrickClosed); err != nil {
			return err
		}
	}
	limit, err := rd.TrickLimit(ctx)
	if err != nil {
		return err
	}
	if rd.TrickCount() >= limit {
		return errs.InvalidStatef("round %d already had %d tricks", rd.Number(), limit)
	}

	now := r.now()
	e := &models.Trick{
		RoundID:   rd.ID(),
		Number:    rd.TrickCount() + 1,
		StartedAt: &now,
		OpenIndex: c.Lead,
		LeadIndex: c.Lead,
	}
	if err := r.add(e); err != nil {
		return err
	}
	rd.e.TrickIDs = append(rd.e.TrickIDs, e.ID)
	r.touch(rd.e)
	c.Trick = r.tricks.Create(e)
	return nil
}

// PlayCard plays a card from a hand into the current trick of its round.
type PlayCard struct {
	Hand *Hand
	Card cards.Card

	Turn *Turn
}

func (c *PlayCard) apply(ctx context.Context, r *Registry) error {
	h := c.Hand
	rd, err := h.Round(ctx)
	if err != nil {
		return err
	}
	if err := requirePlaying(ctx, rd); err != nil {
		return err
	}
	t, err := rd.CurrentTrick(ctx)
	if err != nil {
		return err
	}
	if err := requireTrick(t, models.TrickOpen); err != nil {
		return err
	}
	if t.OpenIndex() != h.Index() {
		return errs.InvalidStatef("trick %d expects hand %d, not hand %d", t.Number(), t.OpenIndex(), h.Index())
	}
	rest, ok := cards.Remove(h.e.Cards, c.Card)
	if !ok {
		return errs.Constraintf("hand does not hold %s", c.Card)
	}
	if !cards.Legal(c.Card, h.e.Cards, t.Demand()) {
		return errs.Constraintf("%s does not follow %s", c.Card, t.Demand())
	}

	e := &models.Turn{
		RoundID: rd.ID(),
		HandID:  h.ID(),
		TrickID: t.ID(),
		Number:  len(t.e.TurnIDs) + 1,
		Card:    c.Card,
	}
	if err := r.add(e); err != nil {
		return err
	}
	if len(t.e.Cards) == 0 {
		t.e.Demand = c.Card.Demand()
	}
	t.e.Cards = append(t.e.Cards, c.Card)
	t.e.TurnIDs = append(t.e.TurnIDs, e.ID)
	t.e.OpenIndex = (t.e.OpenIndex + 1) % Seats
	r.touch(t.e)
	h.e.Cards = rest
	r.touch(h.e)
	c.Turn = r.turns.Create(e)
	return nil
}

// DeclareCall records an announcement of a hand.
type DeclareCall struct {
	Hand        *Hand
	Type        scoring.CallType
	Description string

	Call *Call
}

func (c *DeclareCall) apply(ctx context.Context, r *Registry) error {
	h := c.Hand
	rd, err := h.Round(ctx)
	if err != nil {
		return err
	}
	if err := requirePlaying(ctx, rd); err != nil {
		return err
	}
	declared, err := rd.Declared(ctx)
	if err != nil {
		return err
	}
	if err := scoring.CheckCall(c.Type, h.Party(), h.PlayedCount(), declared); err != nil {
		return errs.Wrap(errs.KindConstraintViolation, err, "call rejected")
	}

	e := &models.Call{
		RoundID:     rd.ID(),
		HandID:      h.ID(),
		Type:        c.Type,
		PlayedCount: h.PlayedCount(),
		Description: c.Description,
	}
	if err := r.add(e); err != nil {
		return err
	}
	rd.e.CallIDs = append(rd.e.CallIDs, e.ID)
	r.touch(rd.e)
	// the call is only legal for the hand's current played count
	r.touch(h.e)
	c.Call = r.calls.Create(e)
	return nil
}

// CloseTrick evaluates a fully played trick and records its winner.
type CloseTrick struct {
	Trick *Trick

	Winner *Hand
}

func (c *CloseTrick) apply(ctx context.Context, r *Registry) error {
	t := c.Trick
	if err := trickTransitions.check("trick", t.State(), models.TrickClosed); err != nil {
		return err
	}
	rd, err := t.Round(ctx)
	if err != nil {
		return err
	}
	if err := requirePlaying(ctx, rd); err != nil {
		return err
	}
	hands, err := rd.ActiveHands(ctx)
	if err != nil {
		return err
	}
	winner := hands[t.HandIndexOf(cards.Winner(t.e.Cards))]

	now := r.now()
	id := winner.ID()
	t.e.WinnerID = &id
	t.e.EndedAt = &now
	r.touch(t.e)
	c.Winner = winner
	return nil
}

// CloseRound settles a round whose tricks are all closed.
type CloseRound struct {
	Round *Round

	Result *Result
}

func (c *CloseRound) apply(ctx context.Context, r *Registry) error {
	rd := c.Round
	if err := roundTransitions.check("round", rd.State(), models.RoundClosed); err != nil {
		return err
	}
	limit, err := rd.TrickLimit(ctx)
	if err != nil {
		return err
	}
	tricks, err := rd.Tricks(ctx)
	if err != nil {
		return err
	}
	if len(tricks) < limit || tricks[len(tricks)-1].State() != models.TrickClosed {
		return errs.InvalidStatef("round %d has unfinished tricks", rd.Number())
	}
	hands, err := rd.ActiveHands(ctx)
	if err != nil {
		return err
	}
	declared, err := rd.Declared(ctx)
	if err != nil {
		return err
	}

	in := scoring.Round{
		Parties: lo.Map(hands, func(h *Hand, _ int) scoring.Party { return h.Party() }),
		Calls:   declared,
	}
	for _, t := range tricks {
		winner, err := t.Winner(ctx)
		if err != nil {
			return err
		}
		in.Tricks = append(in.Tricks, scoring.Trick{
			Cards:  t.Cards(),
			Hands:  lo.Times(len(t.e.Cards), t.HandIndexOf),
			Winner: winner.Index(),
		})
	}
	out := scoring.Settle(in)

	e := &models.Result{
		RoundID:      rd.ID(),
		ReEyes:       out.ReEyes,
		KontraEyes:   out.KontraEyes,
		ReTricks:     out.ReTricks,
		KontraTricks: out.KontraTricks,
		Winner:       out.Winner,
		Value:        out.Value,
		Reasons:      out.Reasons,
		Scores:       make(map[uuid.UUID]int, len(hands)),
	}
	for i, h := range hands {
		e.Scores[h.PlayerID()] = out.Scores[i]
	}
	if err := r.add(e); err != nil {
		return err
	}
	now := r.now()
	rd.e.State = models.RoundClosed
	rd.e.EndedAt = &now
	rd.e.ResultID = &e.ID
	r.touch(rd.e)
	c.Result = r.results.Create(e)
	return nil
}

// FinishGame ends a running game.
type FinishGame struct {
	Game *Game
}

func (c *FinishGame) apply(_ context.Context, r *Registry) error {
	g := c.Game
	if err := gameTransitions.check("game", g.State(), models.GameFinished); err != nil {
		return err
	}
	now := r.now()
	g.e.State = models.GameFinished
	g.e.EndedAt = &now
	r.touch(g.e)
	return nil
}
