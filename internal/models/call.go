package models

import (
	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
)

// Call is an announcement made by a hand during a round.
type Call struct {
	Record
	RoundID     uuid.UUID        `json:"round_id"`
	HandID      uuid.UUID        `json:"hand_id"`
	Type        scoring.CallType `json:"type"`
	PlayedCount int              `json:"played_count"` // cards the hand had played before calling
	Description string           `json:"description"`
}

func (*Call) Kind() Kind { return KindCall }

// Result is the settlement of a closed round.
type Result struct {
	Record
	RoundID      uuid.UUID         `json:"round_id"`
	ReEyes       int               `json:"re_eyes"`
	KontraEyes   int               `json:"kontra_eyes"`
	ReTricks     int               `json:"re_tricks"`
	KontraTricks int               `json:"kontra_tricks"`
	Winner       scoring.Party     `json:"winner,omitempty"`
	Value        int               `json:"value"`
	Reasons      []scoring.Reason  `json:"reasons"`
	Scores       map[uuid.UUID]int `json:"scores"` // keyed by player id
}

func (*Result) Kind() Kind { return KindResult }
