package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
)

// RoundState is the lifecycle state of a round.
type RoundState string

const (
	RoundDealing    RoundState = "DEALING"
	RoundInProgress RoundState = "IN_PROGRESS"
	RoundClosed     RoundState = "CLOSED"
)

type Round struct {
	Record
	GameID    uuid.UUID  `json:"game_id"`
	Number    int        `json:"number"`
	State     RoundState `json:"state"`
	DealerID  uuid.UUID  `json:"dealer_id"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	HandIDs  []uuid.UUID `json:"hand_ids"` // play order, first hand sits left of the dealer
	TrickIDs []uuid.UUID `json:"trick_ids"`
	CallIDs  []uuid.UUID `json:"call_ids"`
	ResultID *uuid.UUID  `json:"result_id,omitempty"`
}

func (*Round) Kind() Kind { return KindRound }

// Hand is the cards one player holds during one round.
type Hand struct {
	Record
	RoundID  uuid.UUID     `json:"round_id"`
	PlayerID uuid.UUID     `json:"player_id"`
	Index    int           `json:"index"` // position in Round.HandIDs
	Dealt    []cards.Card  `json:"dealt"`
	Cards    []cards.Card  `json:"cards"` // still in hand
	Party    scoring.Party `json:"party"`
}

func (*Hand) Kind() Kind { return KindHand }
