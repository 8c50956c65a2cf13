package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/domain"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
)

type gameView struct {
	ID           uuid.UUID        `json:"id"`
	Version      int64            `json:"version"`
	State        models.GameState `json:"state"`
	CreatorID    uuid.UUID        `json:"creator_id"`
	PlayerLimit  int              `json:"player_limit"`
	RoundLimit   int              `json:"round_limit"`
	WithNines    bool             `json:"with_nines"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	EndedAt      *time.Time       `json:"ended_at,omitempty"`
	Players      []playerView     `json:"players"`
	Rounds       []roundSummary   `json:"rounds"`
	CurrentRound *roundView       `json:"current_round,omitempty"`
}

type playerView struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Seat     int       `json:"seat"`
	Dealer   bool      `json:"dealer"`
}

type roundSummary struct {
	ID     uuid.UUID         `json:"id"`
	Number int               `json:"number"`
	State  models.RoundState `json:"state"`
	Result *models.Result    `json:"result,omitempty"`
}

type roundView struct {
	roundSummary
	DealerID uuid.UUID   `json:"dealer_id"`
	Hands    []handView  `json:"hands"`
	Tricks   []trickView `json:"tricks"`
	Calls    []callView  `json:"calls"`
}

// handView hides cards and party from everyone but the owner until the round is closed.
type handView struct {
	ID          uuid.UUID     `json:"id"`
	PlayerID    uuid.UUID     `json:"player_id"`
	Index       int           `json:"index"`
	PlayedCount int           `json:"played_count"`
	CardCount   int           `json:"card_count"`
	Cards       []cards.Card  `json:"cards,omitempty"`
	Party       scoring.Party `json:"party,omitempty"`
}

type trickView struct {
	ID        uuid.UUID         `json:"id"`
	Number    int               `json:"number"`
	State     models.TrickState `json:"state"`
	Demand    cards.Demand      `json:"demand,omitempty"`
	LeadIndex int               `json:"lead_index"`
	OpenIndex int               `json:"open_index"`
	Cards     []cards.Card      `json:"cards"`
	WinnerID  *uuid.UUID        `json:"winner_id,omitempty"`
}

type callView struct {
	ID          uuid.UUID        `json:"id"`
	HandID      uuid.UUID        `json:"hand_id"`
	Type        scoring.CallType `json:"type"`
	PlayedCount int              `json:"played_count"`
	Description string           `json:"description,omitempty"`
}

func newGameView(ctx context.Context, g *domain.Game, viewer engine.Principal) (gameView, error) {
	v := gameView{
		ID:          g.ID(),
		Version:     g.Version(),
		State:       g.State(),
		CreatorID:   g.CreatorID(),
		PlayerLimit: g.PlayerLimit(),
		RoundLimit:  g.RoundLimit(),
		WithNines:   g.WithNines(),
		StartedAt:   g.StartedAt(),
		EndedAt:     g.EndedAt(),
		Players:     []playerView{},
		Rounds:      []roundSummary{},
	}

	players, err := g.Players(ctx)
	if err != nil {
		return gameView{}, err
	}
	for _, p := range players {
		u, err := p.User(ctx)
		if err != nil {
			return gameView{}, err
		}
		v.Players = append(v.Players, playerView{
			ID:       p.ID(),
			UserID:   p.UserID(),
			Username: u.Username(),
			Seat:     p.Seat(),
			Dealer:   p.Dealer(),
		})
	}

	rounds, err := g.Rounds(ctx)
	if err != nil {
		return gameView{}, err
	}
	for _, rd := range rounds {
		sum, err := newRoundSummary(ctx, rd)
		if err != nil {
			return gameView{}, err
		}
		v.Rounds = append(v.Rounds, sum)
	}
	if len(rounds) > 0 {
		cur, err := newRoundView(ctx, rounds[len(rounds)-1], viewer)
		if err != nil {
			return gameView{}, err
		}
		v.CurrentRound = &cur
	}
	return v, nil
}

func newRoundSummary(ctx context.Context, rd *domain.Round) (roundSummary, error) {
	sum := roundSummary{ID: rd.ID(), Number: rd.Number(), State: rd.State()}
	res, err := rd.Result(ctx)
	if err != nil {
		return roundSummary{}, err
	}
	if res != nil {
		sum.Result = &models.Result{
			Record:       models.Record{ID: res.ID()},
			RoundID:      rd.ID(),
			ReEyes:       res.ReEyes(),
			KontraEyes:   res.KontraEyes(),
			ReTricks:     res.ReTricks(),
			KontraTricks: res.KontraTricks(),
			Winner:       res.Winner(),
			Value:        res.Value(),
			Reasons:      res.Reasons(),
			Scores:       res.Scores(),
		}
	}
	return sum, nil
}

func newRoundView(ctx context.Context, rd *domain.Round, viewer engine.Principal) (roundView, error) {
	sum, err := newRoundSummary(ctx, rd)
	if err != nil {
		return roundView{}, err
	}
	v := roundView{
		roundSummary: sum,
		DealerID:     rd.DealerID(),
		Hands:        []handView{},
		Tricks:       []trickView{},
		Calls:        []callView{},
	}

	hands, err := rd.ActiveHands(ctx)
	if err != nil {
		return roundView{}, err
	}
	for _, h := range hands {
		p, err := h.Player(ctx)
		if err != nil {
			return roundView{}, err
		}
		hv := handView{
			ID:          h.ID(),
			PlayerID:    h.PlayerID(),
			Index:       h.Index(),
			PlayedCount: h.PlayedCount(),
			CardCount:   len(h.Cards()),
		}
		if p.UserID() == viewer.UserID {
			hv.Cards = h.Cards()
			hv.Party = h.Party()
		}
		if rd.State() == models.RoundClosed {
			hv.Party = h.Party()
		}
		v.Hands = append(v.Hands, hv)
	}

	tricks, err := rd.Tricks(ctx)
	if err != nil {
		return roundView{}, err
	}
	for _, t := range tricks {
		v.Tricks = append(v.Tricks, trickView{
			ID:        t.ID(),
			Number:    t.Number(),
			State:     t.State(),
			Demand:    t.Demand(),
			LeadIndex: t.LeadIndex(),
			OpenIndex: t.OpenIndex(),
			Cards:     t.Cards(),
			WinnerID:  t.WinnerID(),
		})
	}

	calls, err := rd.Calls(ctx)
	if err != nil {
		return roundView{}, err
	}
	for _, c := range calls {
		v.Calls = append(v.Calls, callView{
			ID:          c.ID(),
			HandID:      c.HandID(),
			Type:        c.Type(),
			PlayedCount: c.PlayedCount(),
			Description: c.Description(),
		})
	}
	return v, nil
}
