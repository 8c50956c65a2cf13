package models

import (
	"time"

	"github.com/google/uuid"
)

// GameState is the lifecycle state of a game.
type GameState string

const (
	GameLobby    GameState = "LOBBY"
	GameRunning  GameState = "RUNNING"
	GameFinished GameState = "FINISHED"
)

// Game is a table of 4 to 8 players playing a sequence of rounds.
type Game struct {
	Record
	CreatorID   uuid.UUID  `json:"creator_id"`
	PlayerLimit int        `json:"player_limit"`
	RoundLimit  int        `json:"round_limit"` // 0 plays until the creator ends the game
	Seed        *int64     `json:"seed,omitempty"`
	WithNines   bool       `json:"with_nines"`
	State       GameState  `json:"state"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`

	PlayerIDs []uuid.UUID `json:"player_ids"`
	RoundIDs  []uuid.UUID `json:"round_ids"`
}

func (*Game) Kind() Kind { return KindGame }

// Player is a user occupying a seat at a game.
type Player struct {
	Record
	GameID uuid.UUID `json:"game_id"`
	UserID uuid.UUID `json:"user_id"`
	Seat   int       `json:"seat"`
	Dealer bool      `json:"dealer"`
}

func (*Player) Kind() Kind { return KindPlayer }
