package domain

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/samber/lo"
)

// Seats is the number of hands dealt in every round.
const Seats = 4

const (
	MinPlayers = 4
	MaxPlayers = 8
)

type User struct {
	reg *Registry
	e   *models.User
}

func (u *User) ID() uuid.UUID        { return u.e.ID }
func (u *User) Username() string     { return u.e.Username }
func (u *User) Role() models.Role    { return u.e.Role }
func (u *User) CreatedAt() time.Time { return u.e.CreatedAt }

// Game is the root aggregate of a table.
type Game struct {
	reg *Registry
	e   *models.Game
}

func (g *Game) ID() uuid.UUID           { return g.e.ID }
func (g *Game) Version() int64          { return g.e.Version }
func (g *Game) CreatorID() uuid.UUID    { return g.e.CreatorID }
func (g *Game) PlayerLimit() int        { return g.e.PlayerLimit }
func (g *Game) RoundLimit() int         { return g.e.RoundLimit }
func (g *Game) Seed() *int64            { return g.e.Seed }
func (g *Game) WithNines() bool         { return g.e.WithNines }
func (g *Game) State() models.GameState { return g.e.State }
func (g *Game) CreatedAt() time.Time    { return g.e.CreatedAt }
func (g *Game) StartedAt() *time.Time   { return g.e.StartedAt }
func (g *Game) EndedAt() *time.Time     { return g.e.EndedAt }
func (g *Game) PlayerCount() int        { return len(g.e.PlayerIDs) }
func (g *Game) RoundCount() int         { return len(g.e.RoundIDs) }

func (g *Game) Creator(ctx context.Context) (*User, error) {
	return g.reg.User(ctx, g.e.CreatorID)
}

// Players returns the seated players ordered by seat.
func (g *Game) Players(ctx context.Context) ([]*Player, error) {
	ps, err := lookupAll(ctx, g.reg, g.reg.players, models.KindPlayer, g.e.PlayerIDs)
	if err != nil {
		return nil, err
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Seat() < ps[j].Seat() })
	return ps, nil
}

// Rounds returns the rounds in play order.
func (g *Game) Rounds(ctx context.Context) ([]*Round, error) {
	return lookupAll(ctx, g.reg, g.reg.rounds, models.KindRound, g.e.RoundIDs)
}

// CurrentRound returns the latest round, or nil before the first round was opened.
func (g *Game) CurrentRound(ctx context.Context) (*Round, error) {
	if len(g.e.RoundIDs) == 0 {
		return nil, nil
	}
	return g.reg.Round(ctx, g.e.RoundIDs[len(g.e.RoundIDs)-1])
}

// PlayerBySeat returns the player at seat, or nil when the seat is free.
func (g *Game) PlayerBySeat(ctx context.Context, seat int) (*Player, error) {
	ps, err := g.Players(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := lo.Find(ps, func(p *Player) bool { return p.Seat() == seat })
	return p, nil
}

// PlayerForUser returns the player of the given user, or nil when the user is not seated.
func (g *Game) PlayerForUser(ctx context.Context, userID uuid.UUID) (*Player, error) {
	ps, err := g.Players(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := lo.Find(ps, func(p *Player) bool { return p.UserID() == userID })
	return p, nil
}

// Dealer returns the player currently holding the dealer flag, or nil before the first round.
func (g *Game) Dealer(ctx context.Context) (*Player, error) {
	ps, err := g.Players(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := lo.Find(ps, func(p *Player) bool { return p.Dealer() })
	return p, nil
}

// Player is a seat at a game.
type Player struct {
	reg *Registry
	e   *models.Player
}

func (p *Player) ID() uuid.UUID     { return p.e.ID }
func (p *Player) GameID() uuid.UUID { return p.e.GameID }
func (p *Player) UserID() uuid.UUID { return p.e.UserID }
func (p *Player) Seat() int         { return p.e.Seat }
func (p *Player) Dealer() bool      { return p.e.Dealer }

func (p *Player) Game(ctx context.Context) (*Game, error) {
	return p.reg.Game(ctx, p.e.GameID)
}

func (p *Player) User(ctx context.Context) (*User, error) {
	return p.reg.User(ctx, p.e.UserID)
}

// playOrder returns the players taking part in a round dealt by dealer: the Seats players
// following the dealer in seat order. With more than Seats players the dealer sits out.
func playOrder(players []*Player, dealer *Player) []*Player {
	start := lo.IndexOf(players, dealer)
	out := make([]*Player, 0, Seats)
	for i := 1; i <= len(players) && len(out) < Seats; i++ {
		out = append(out, players[(start+i)%len(players)])
	}
	return out
}
