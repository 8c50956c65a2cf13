package engine

import (
	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
)

// Principal is the authenticated user issuing an action.
type Principal struct {
	UserID   uuid.UUID   `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Action is a user request to change game state. The set of actions is closed: every
// action belongs to exactly one of the families below.
type Action interface {
	Actor() Principal
	Name() string
}

// LobbyAction acts on a game before it starts.
type LobbyAction interface {
	Action
	lobbyAction()
}

// GameAction drives the lifecycle of a game.
type GameAction interface {
	Action
	gameAction()
}

// RoundAction acts on a round.
type RoundAction interface {
	Action
	roundAction()
}

// HandAction is issued by the owner of a hand.
type HandAction interface {
	Action
	handAction()
}

// TrickAction acts on a trick.
type TrickAction interface {
	Action
	trickAction()
}

type GameOperation string

const (
	GameStart GameOperation = "start"
	GameEnd   GameOperation = "end"
)

type RoundOperation string

const RoundDeal RoundOperation = "deal"

type TrickOperation string

const TrickEvaluate TrickOperation = "evaluate"

type CreateGame struct {
	By          Principal `json:"-"`
	PlayerLimit int       `json:"player_limit"`
	RoundLimit  int       `json:"round_limit"`
	Seed        *int64    `json:"seed,omitempty"`
	WithNines   bool      `json:"with_nines"`
}

type JoinGame struct {
	By     Principal `json:"-"`
	GameID uuid.UUID `json:"game_id"`
	Seat   int       `json:"seat"`
}

type LeaveGame struct {
	By     Principal `json:"-"`
	GameID uuid.UUID `json:"game_id"`
}

type ExecuteGameOperation struct {
	By     Principal     `json:"-"`
	GameID uuid.UUID     `json:"game_id"`
	Op     GameOperation `json:"op"`
}

type ExecuteRoundOperation struct {
	By      Principal      `json:"-"`
	RoundID uuid.UUID      `json:"round_id"`
	Op      RoundOperation `json:"op"`
}

type PlayCard struct {
	By     Principal  `json:"-"`
	HandID uuid.UUID  `json:"hand_id"`
	Card   cards.Card `json:"card"`
}

type DeclareCall struct {
	By          Principal        `json:"-"`
	HandID      uuid.UUID        `json:"hand_id"`
	Type        scoring.CallType `json:"type"`
	Description string           `json:"description,omitempty"`
}

type ExecuteTrickOperation struct {
	By      Principal      `json:"-"`
	TrickID uuid.UUID      `json:"trick_id"`
	Op      TrickOperation `json:"op"`
}

func (a CreateGame) Actor() Principal            { return a.By }
func (a JoinGame) Actor() Principal              { return a.By }
func (a LeaveGame) Actor() Principal             { return a.By }
func (a ExecuteGameOperation) Actor() Principal  { return a.By }
func (a ExecuteRoundOperation) Actor() Principal { return a.By }
func (a PlayCard) Actor() Principal              { return a.By }
func (a DeclareCall) Actor() Principal           { return a.By }
func (a ExecuteTrickOperation) Actor() Principal { return a.By }

func (CreateGame) Name() string              { return "create_game" }
func (JoinGame) Name() string                { return "join_game" }
func (LeaveGame) Name() string               { return "leave_game" }
func (a ExecuteGameOperation) Name() string  { return "game_" + string(a.Op) }
func (a ExecuteRoundOperation) Name() string { return "round_" + string(a.Op) }
func (PlayCard) Name() string                { return "play_card" }
func (DeclareCall) Name() string             { return "declare_call" }
func (a ExecuteTrickOperation) Name() string { return "trick_" + string(a.Op) }

func (CreateGame) lobbyAction()            {}
func (JoinGame) lobbyAction()              {}
func (LeaveGame) lobbyAction()             {}
func (ExecuteGameOperation) gameAction()   {}
func (ExecuteRoundOperation) roundAction() {}
func (PlayCard) handAction()               {}
func (DeclareCall) handAction()            {}
func (ExecuteTrickOperation) trickAction() {}
