package handlers

import (
	"net/http"

	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/domain"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/scoring"
)

type createGameRequest struct {
	PlayerLimit int    `json:"player_limit"`
	RoundLimit  *int   `json:"round_limit"`
	Seed        *int64 `json:"seed"`
	WithNines   *bool  `json:"with_nines"`
}

// CreateGameHandler opens a new game lobby with the caller at seat 0.
//
// Request payload (all fields optional):
//
//	{
//	  "player_limit": 4,
//	  "round_limit": 8,
//	  "seed": 42,
//	  "with_nines": true
//	}
func (s *Server) CreateGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		req := createGameRequest{PlayerLimit: domain.MinPlayers}
		if !decode(w, r, &req) {
			return
		}
		a := engine.CreateGame{
			By:          p,
			PlayerLimit: req.PlayerLimit,
			RoundLimit:  s.roundLimit,
			Seed:        req.Seed,
			WithNines:   true,
		}
		if req.RoundLimit != nil {
			a.RoundLimit = *req.RoundLimit
		}
		if req.WithNines != nil {
			a.WithNines = *req.WithNines
		}
		s.act(w, r, a, http.StatusCreated)
	}
}

// GetGameHandler returns the game as seen by the caller: only their own hand shows cards.
func (s *Server) GetGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var view gameView
		err := s.engine.View(r.Context(), func(reg *domain.Registry) error {
			g, err := reg.Game(r.Context(), id)
			if err != nil {
				return err
			}
			view, err = newGameView(r.Context(), g, p)
			return err
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// JoinGameHandler seats the caller. Payload: {"seat": 2}.
func (s *Server) JoinGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Seat int `json:"seat"`
		}
		if !decode(w, r, &req) {
			return
		}
		s.act(w, r, engine.JoinGame{By: p, GameID: id, Seat: req.Seat}, http.StatusCreated)
	}
}

func (s *Server) LeaveGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		s.act(w, r, engine.LeaveGame{By: p, GameID: id}, http.StatusOK)
	}
}

// GameOperationHandler starts or ends a game. Payload: {"op": "start"}.
func (s *Server) GameOperationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Op engine.GameOperation `json:"op"`
		}
		if !decode(w, r, &req) {
			return
		}
		s.act(w, r, engine.ExecuteGameOperation{By: p, GameID: id, Op: req.Op}, http.StatusOK)
	}
}

// RoundOperationHandler deals a round. Payload: {"op": "deal"}.
func (s *Server) RoundOperationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Op engine.RoundOperation `json:"op"`
		}
		if !decode(w, r, &req) {
			return
		}
		s.act(w, r, engine.ExecuteRoundOperation{By: p, RoundID: id, Op: req.Op}, http.StatusOK)
	}
}

// PlayCardHandler plays a card from the caller's hand. Payload: {"card": "H10"}.
func (s *Server) PlayCardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Card cards.Card `json:"card"`
		}
		if !decode(w, r, &req) {
			return
		}
		s.act(w, r, engine.PlayCard{By: p, HandID: id, Card: req.Card}, http.StatusCreated)
	}
}

// DeclareCallHandler announces a call. Payload: {"type": "RE", "description": "..."}.
func (s *Server) DeclareCallHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Type        scoring.CallType `json:"type"`
			Description string           `json:"description"`
		}
		if !decode(w, r, &req) {
			return
		}
		s.act(w, r, engine.DeclareCall{By: p, HandID: id, Type: req.Type, Description: req.Description}, http.StatusCreated)
	}
}

// TrickOperationHandler evaluates a full trick. Payload: {"op": "evaluate"}.
func (s *Server) TrickOperationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.principal(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req struct {
			Op engine.TrickOperation `json:"op"`
		}
		if !decode(w, r, &req) {
			return
		}
		s.act(w, r, engine.ExecuteTrickOperation{By: p, TrickID: id, Op: req.Op}, http.StatusOK)
	}
}
