package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
)

// TrickState is derived from the played cards and the winner; it is never stored.
type TrickState string

const (
	TrickOpen     TrickState = "OPEN"
	TrickAwaiting TrickState = "AWAITING_EVALUATION"
	TrickClosed   TrickState = "CLOSED"
)

type Trick struct {
	Record
	RoundID   uuid.UUID    `json:"round_id"`
	Number    int          `json:"number"`
	StartedAt *time.Time   `json:"started_at,omitempty"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
	Demand    cards.Demand `json:"demand,omitempty"` // set by the leading card
	OpenIndex int          `json:"open_index"`       // hand index expected to play next
	LeadIndex int          `json:"lead_index"`       // hand index of the leading card
	Cards     []cards.Card `json:"cards"`            // in play order
	TurnIDs   []uuid.UUID  `json:"turn_ids"`
	WinnerID  *uuid.UUID   `json:"winner_id,omitempty"` // winning hand
}

func (*Trick) Kind() Kind { return KindTrick }

// Turn is one card played into a trick.
type Turn struct {
	Record
	RoundID uuid.UUID  `json:"round_id"`
	HandID  uuid.UUID  `json:"hand_id"`
	TrickID uuid.UUID  `json:"trick_id"`
	Number  int        `json:"number"` // 1-based within the trick
	Card    cards.Card `json:"card"`
}

func (*Turn) Kind() Kind { return KindTurn }
