package domain

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stackedDeck deals clubs to hand 0, spades to hand 1, hearts and two spade queens to
// hand 2 and the high trumps to hand 3.
var stackedDeck = strings.Join([]string{
	"CA CA C10 C10 CK CK C9 C9 CQ SJ DA D9",
	"SA SA S10 S10 SK SK S9 S9 CQ SJ DA D9",
	"HA HA HK HK H9 H9 H10 H10 SQ SQ HJ HJ",
	"DQ DQ HQ HQ CJ CJ DJ DJ D10 D10 DK DK",
}, " ")

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	users []uuid.UUID
}

func newFixture(t *testing.T, users int) *fixture {
	f := &fixture{t: t, ctx: context.Background(), store: memory.NewStore()}
	for i := 0; i < users; i++ {
		u := &models.User{Record: models.Record{ID: uuid.New()}, Username: fmt.Sprintf("user%d", i), Role: models.RoleUser}
		require.NoError(t, f.store.Save(f.ctx, u))
		f.users = append(f.users, u.ID)
	}
	return f
}

func (f *fixture) registry() *Registry {
	return NewRegistry(f.store)
}

func (f *fixture) user(r *Registry, i int) *User {
	u, err := r.User(f.ctx, f.users[i])
	require.NoError(f.t, err)
	return u
}

// exec runs cmds in a fresh registry and commits it.
func (f *fixture) exec(build func(r *Registry) []Command) error {
	r := f.registry()
	if err := r.Execute(f.ctx, build(r)...); err != nil {
		return err
	}
	return r.Commit(f.ctx)
}

// lobby creates a game with limit seats and seats users 1..n-1 next to the creator.
func (f *fixture) lobby(limit, n int) uuid.UUID {
	r := f.registry()
	create := &CreateGame{Creator: f.user(r, 0), PlayerLimit: limit, WithNines: true}
	require.NoError(f.t, r.Execute(f.ctx, create))
	for i := 1; i < n; i++ {
		require.NoError(f.t, r.Execute(f.ctx, &SeatPlayer{Game: create.Game, User: f.user(r, i), Seat: i}))
	}
	require.NoError(f.t, r.Commit(f.ctx))
	return create.Game.ID()
}

// started creates a running four player game whose first round is dealt from stackedDeck.
func (f *fixture) started() uuid.UUID {
	id := f.lobby(4, 4)
	deck, err := cards.ParseAll(stackedDeck)
	require.NoError(f.t, err)
	require.NoError(f.t, f.exec(func(r *Registry) []Command {
		g, err := r.Game(f.ctx, id)
		require.NoError(f.t, err)
		start := &StartGame{Game: g}
		require.NoError(f.t, r.Execute(f.ctx, start))
		return []Command{&DealRound{Round: start.Round, Deck: deck}}
	}))
	return id
}

func (f *fixture) play(gameID uuid.UUID, handIndex int, card string) error {
	return f.exec(func(r *Registry) []Command {
		rd := f.round(r, gameID)
		hands, err := rd.ActiveHands(f.ctx)
		require.NoError(f.t, err)
		return []Command{&PlayCard{Hand: hands[handIndex], Card: cards.MustParse(card)}}
	})
}

func (f *fixture) round(r *Registry, gameID uuid.UUID) *Round {
	g, err := r.Game(f.ctx, gameID)
	require.NoError(f.t, err)
	rd, err := g.CurrentRound(f.ctx)
	require.NoError(f.t, err)
	return rd
}

func (f *fixture) trick(r *Registry, gameID uuid.UUID) *Trick {
	t, err := f.round(r, gameID).CurrentTrick(f.ctx)
	require.NoError(f.t, err)
	return t
}

func TestFactoryReturnsSameModel(t *testing.T) {
	f := newFixture(t, 1)
	r := f.registry()

	e := &models.Game{Record: models.Record{ID: uuid.New()}}
	assert.Same(t, r.Games().Create(e), r.Games().Create(e))

	u1, err := r.User(f.ctx, f.users[0])
	require.NoError(t, err)
	u2, err := r.User(f.ctx, f.users[0])
	require.NoError(t, err)
	assert.Same(t, u1, u2)
	assert.Equal(t, "user0", u1.Username())

	_, err = r.Game(f.ctx, f.users[0])
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestTraversalStaysInOneIdentitySpace(t *testing.T) {
	f := newFixture(t, 4)
	id := f.started()
	require.NoError(t, f.play(id, 0, "CA"))

	r := f.registry()
	g, err := r.Game(f.ctx, id)
	require.NoError(t, err)
	rd, err := g.CurrentRound(f.ctx)
	require.NoError(t, err)
	tr, err := rd.CurrentTrick(f.ctx)
	require.NoError(t, err)
	turns, err := tr.Turns(f.ctx)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	h, err := turns[0].Hand(f.ctx)
	require.NoError(t, err)
	p, err := h.Player(f.ctx)
	require.NoError(t, err)
	u, err := p.User(f.ctx)
	require.NoError(t, err)

	back, err := tr.Round(f.ctx)
	require.NoError(t, err)
	assert.Same(t, rd, back)
	viaTurn, err := turns[0].Trick(f.ctx)
	require.NoError(t, err)
	assert.Same(t, tr, viaTurn)
	pg, err := p.Game(f.ctx)
	require.NoError(t, err)
	assert.Same(t, g, pg)
	direct, err := r.User(f.ctx, u.ID())
	require.NoError(t, err)
	assert.Same(t, u, direct)
	hands, err := rd.ActiveHands(f.ctx)
	require.NoError(t, err)
	assert.Same(t, hands[0], h)
	assert.Equal(t, 1, turns[0].Number())
}

func TestCommitConflictOnConcurrentChange(t *testing.T) {
	f := newFixture(t, 3)
	id := f.lobby(4, 1)

	a, b := f.registry(), f.registry()
	ga, err := a.Game(f.ctx, id)
	require.NoError(t, err)
	gb, err := b.Game(f.ctx, id)
	require.NoError(t, err)

	require.NoError(t, a.Execute(f.ctx, &SeatPlayer{Game: ga, User: f.user(a, 1), Seat: 1}))
	require.NoError(t, b.Execute(f.ctx, &SeatPlayer{Game: gb, User: f.user(b, 2), Seat: 2}))
	require.NoError(t, a.Commit(f.ctx))
	assert.ErrorIs(t, b.Commit(f.ctx), errs.Conflict)
	assert.ErrorIs(t, b.Commit(f.ctx), ErrClosed)

	g, err := f.registry().Game(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, g.PlayerCount())
}

func TestFailedCommandClosesRegistry(t *testing.T) {
	f := newFixture(t, 1)
	r := f.registry()
	err := r.Execute(f.ctx, &CreateGame{Creator: f.user(r, 0), PlayerLimit: 9})
	assert.ErrorIs(t, err, errs.ConstraintViolation)
	assert.ErrorIs(t, r.Commit(f.ctx), ErrClosed)
	assert.Equal(t, 1, f.store.Len())
}

func TestSeatPlayer(t *testing.T) {
	f := newFixture(t, 6)
	id := f.lobby(4, 2)

	seat := func(user, seat int) error {
		return f.exec(func(r *Registry) []Command {
			g, err := r.Game(f.ctx, id)
			require.NoError(t, err)
			return []Command{&SeatPlayer{Game: g, User: f.user(r, user), Seat: seat}}
		})
	}
	assert.ErrorIs(t, seat(2, 1), errs.ConstraintViolation, "seat taken")
	assert.ErrorIs(t, seat(2, 4), errs.ConstraintViolation, "seat outside limit")
	assert.ErrorIs(t, seat(1, 2), errs.ConstraintViolation, "already seated")
	require.NoError(t, seat(2, 2))
	require.NoError(t, seat(3, 3))
	assert.ErrorIs(t, seat(4, 3), errs.InvalidStateTransition, "game full")
}

func TestUnseatPlayer(t *testing.T) {
	f := newFixture(t, 2)
	id := f.lobby(4, 2)
	require.NoError(t, f.exec(func(r *Registry) []Command {
		g, err := r.Game(f.ctx, id)
		require.NoError(t, err)
		p, err := g.PlayerBySeat(f.ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, p)
		return []Command{&UnseatPlayer{Player: p}}
	}))

	g, err := f.registry().Game(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, g.PlayerCount())
	free, err := g.PlayerBySeat(f.ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, free)
}

func TestStartGameNeedsFourPlayers(t *testing.T) {
	f := newFixture(t, 3)
	id := f.lobby(4, 3)
	err := f.exec(func(r *Registry) []Command {
		g, err := r.Game(f.ctx, id)
		require.NoError(t, err)
		return []Command{&StartGame{Game: g}}
	})
	assert.ErrorIs(t, err, errs.InvalidStateTransition)
}

func TestDealRound(t *testing.T) {
	f := newFixture(t, 4)
	id := f.started()

	r := f.registry()
	rd := f.round(r, id)
	assert.Equal(t, models.RoundInProgress, rd.State())
	assert.Equal(t, 1, rd.Number())

	dealer, err := rd.Dealer(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dealer.Seat())
	assert.True(t, dealer.Dealer())

	hands, err := rd.ActiveHands(f.ctx)
	require.NoError(t, err)
	require.Len(t, hands, Seats)
	for i, want := range []int{1, 2, 3, 0} {
		p, err := hands[i].Player(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, want, p.Seat(), "hand %d", i)
		assert.Len(t, hands[i].Cards(), 12)
	}
	assert.Equal(t, scoring.Re, hands[0].Party())
	assert.Equal(t, scoring.Kontra, hands[3].Party())

	tr, err := rd.CurrentTrick(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Number())
	assert.Equal(t, 0, tr.LeadIndex())
	assert.Equal(t, models.TrickOpen, tr.State())

	err = f.exec(func(r *Registry) []Command {
		return []Command{&DealRound{Round: f.round(r, id), Deck: cards.NewDeck(true)}}
	})
	assert.ErrorIs(t, err, errs.InvalidStateTransition, "dealing twice")
}

func TestDealRoundRejectsForgedDeck(t *testing.T) {
	f := newFixture(t, 4)
	id := f.lobby(4, 4)
	forged := make([]cards.Card, 48)
	for i := range forged {
		forged[i] = cards.ClubsQueen
	}

	err := f.exec(func(r *Registry) []Command {
		g, err := r.Game(f.ctx, id)
		require.NoError(t, err)
		start := &StartGame{Game: g}
		require.NoError(t, r.Execute(f.ctx, start))
		return []Command{&DealRound{Round: start.Round, Deck: forged}}
	})
	assert.ErrorIs(t, err, errs.ConstraintViolation)

	g, err := f.registry().Game(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.GameLobby, g.State(), "nothing was committed")
}

func TestPlayCardRules(t *testing.T) {
	f := newFixture(t, 4)
	id := f.started()

	assert.ErrorIs(t, f.play(id, 1, "SA"), errs.InvalidStateTransition, "out of turn")
	assert.ErrorIs(t, f.play(id, 0, "HA"), errs.ConstraintViolation, "not in hand")
	require.NoError(t, f.play(id, 0, "D9"))
	assert.ErrorIs(t, f.play(id, 1, "SA"), errs.ConstraintViolation, "must follow trump")
	require.NoError(t, f.play(id, 1, "DA"))

	r := f.registry()
	tr := f.trick(r, id)
	assert.Equal(t, cards.DemandTrump, tr.Demand())
	assert.Equal(t, 2, tr.OpenIndex())
	turns, err := tr.Turns(f.ctx)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, []int{1, 2}, []int{turns[0].Number(), turns[1].Number()})
	hands, err := f.round(r, id).ActiveHands(f.ctx)
	require.NoError(t, err)
	assert.False(t, hands[0].Has(cards.DiamondsNine))
	assert.True(t, hands[1].Has(cards.DiamondsNine))
	assert.Equal(t, 1, hands[0].PlayedCount())
}

func TestCloseTrick(t *testing.T) {
	f := newFixture(t, 4)
	id := f.started()

	closeTrick := func() error {
		return f.exec(func(r *Registry) []Command {
			return []Command{&CloseTrick{Trick: f.trick(r, id)}}
		})
	}
	for i, c := range []string{"CA", "S9", "SQ"} {
		require.NoError(t, f.play(id, i, c))
	}
	assert.ErrorIs(t, closeTrick(), errs.InvalidStateTransition, "one seat missing")
	require.NoError(t, f.play(id, 3, "DK"))
	assert.Equal(t, models.TrickAwaiting, f.trick(f.registry(), id).State())
	assert.ErrorIs(t, f.play(id, 0, "CA"), errs.InvalidStateTransition, "trick is full")

	require.NoError(t, closeTrick())
	r := f.registry()
	tr := f.trick(r, id)
	assert.Equal(t, models.TrickClosed, tr.State())
	w, err := tr.Winner(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Index())
	assert.NotNil(t, tr.EndedAt())

	assert.ErrorIs(t, closeTrick(), errs.InvalidStateTransition, "closed is terminal")
	w2, err := f.trick(f.registry(), id).Winner(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, w.ID(), w2.ID())

	require.NoError(t, f.exec(func(r *Registry) []Command {
		return []Command{&OpenTrick{Round: f.round(r, id), Lead: 2}}
	}))
	next := f.trick(f.registry(), id)
	assert.Equal(t, 2, next.Number())
	assert.Equal(t, 2, next.OpenIndex())
}

func TestDeclareCall(t *testing.T) {
	f := newFixture(t, 4)
	id := f.started()

	call := func(hand int, ct scoring.CallType) error {
		return f.exec(func(r *Registry) []Command {
			hands, err := f.round(r, id).ActiveHands(f.ctx)
			require.NoError(t, err)
			return []Command{&DeclareCall{Hand: hands[hand], Type: ct}}
		})
	}
	require.NoError(t, call(0, scoring.CallRe))
	assert.ErrorIs(t, call(1, scoring.CallRe), errs.ConstraintViolation, "re already called by the party")
	assert.ErrorIs(t, call(2, scoring.CallRe), errs.ConstraintViolation, "kontra hand")
	require.NoError(t, call(3, scoring.CallKontra))
	require.NoError(t, call(1, scoring.CallNo90))

	rd := f.round(f.registry(), id)
	declared, err := rd.Declared(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []scoring.Declared{
		{Party: scoring.Re, Type: scoring.CallRe},
		{Party: scoring.Kontra, Type: scoring.CallKontra},
		{Party: scoring.Re, Type: scoring.CallNo90},
	}, declared)
}

func TestOpenRoundRotatesDealerAndSkipsDealerAtLargeTables(t *testing.T) {
	f := newFixture(t, 5)
	id := f.lobby(5, 5)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	r := NewRegistry(f.store, WithClock(func() time.Time { return clock }))
	g, err := r.Game(f.ctx, id)
	require.NoError(t, err)
	start := &StartGame{Game: g}
	require.NoError(t, r.Execute(f.ctx, start))
	require.NoError(t, r.Execute(f.ctx, &DealRound{Round: start.Round, Deck: cards.NewDeck(true)}))
	require.NoError(t, r.Commit(f.ctx))

	r = f.registry()
	rd := f.round(r, id)
	assert.Equal(t, clock, *rd.StartedAt())
	hands, err := rd.ActiveHands(f.ctx)
	require.NoError(t, err)
	seats := make([]int, len(hands))
	for i, h := range hands {
		p, err := h.Player(f.ctx)
		require.NoError(t, err)
		seats[i] = p.Seat()
	}
	assert.Equal(t, []int{1, 2, 3, 4}, seats, "dealer at seat 0 sits out")

	g, err = r.Game(f.ctx, id)
	require.NoError(t, err)
	err = r.Execute(f.ctx, &OpenRound{Game: g})
	assert.ErrorIs(t, err, errs.InvalidStateTransition, "previous round still running")
}

func TestDeclareCallConflictsWithConcurrentPlay(t *testing.T) {
	f := newFixture(t, 4)
	id := f.started()

	// hand 0 wins the first trick with CQ and leads the second
	for i, c := range []string{"CQ", "D9", "HJ", "DK"} {
		require.NoError(t, f.play(id, i, c))
	}
	require.NoError(t, f.exec(func(r *Registry) []Command {
		return []Command{&CloseTrick{Trick: f.trick(r, id)}}
	}))
	require.NoError(t, f.exec(func(r *Registry) []Command {
		return []Command{&OpenTrick{Round: f.round(r, id), Lead: 0}}
	}))

	a := f.registry()
	hands, err := f.round(a, id).ActiveHands(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, hands[0].PlayedCount())

	require.NoError(t, f.play(id, 0, "SJ"))

	require.NoError(t, a.Execute(f.ctx, &DeclareCall{Hand: hands[0], Type: scoring.CallRe}))
	assert.ErrorIs(t, a.Commit(f.ctx), errs.Conflict)

	calls, err := f.round(f.registry(), id).Calls(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, calls)
}
