// Package handlers exposes the game engine over JSON/HTTP and pushes game updates over
// websockets.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/auth"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/domain"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/middleware"
	"github.com/sirupsen/logrus"
)

// UserStore is the persistence the HTTP layer needs: entity storage plus user lookup by name.
type UserStore interface {
	domain.Store
	domain.UserDirectory
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	engine     *engine.Engine
	store      UserStore
	sessions   *auth.Sessions
	hub        *Hub
	logger     *logrus.Logger
	roundLimit int
}

// NewServer wires the handlers. roundLimit is used for games created without one.
func NewServer(e *engine.Engine, store UserStore, sessions *auth.Sessions, logger *logrus.Logger, roundLimit int) *Server {
	return &Server{
		engine:     e,
		store:      store,
		sessions:   sessions,
		hub:        NewHub(),
		logger:     logger,
		roundLimit: roundLimit,
	}
}

// Routes returns the request multiplexer with request logging applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("POST /user/create", s.CreateUserHandler())
	mux.HandleFunc("POST /user/login", s.LoginHandler())

	// game endpoints
	mux.HandleFunc("POST /game", s.CreateGameHandler())
	mux.HandleFunc("GET /game/{id}", s.GetGameHandler())
	mux.HandleFunc("POST /game/{id}/join", s.JoinGameHandler())
	mux.HandleFunc("POST /game/{id}/leave", s.LeaveGameHandler())
	mux.HandleFunc("POST /game/{id}/operation", s.GameOperationHandler())
	mux.HandleFunc("POST /round/{id}/operation", s.RoundOperationHandler())
	mux.HandleFunc("POST /hand/{id}/play", s.PlayCardHandler())
	mux.HandleFunc("POST /hand/{id}/call", s.DeclareCallHandler())
	mux.HandleFunc("POST /trick/{id}/operation", s.TrickOperationHandler())

	// game update feed
	mux.HandleFunc("GET /game/ws/{id}", s.GameWSHandler())

	return middleware.LogMiddleware(s.logger)(mux)
}

type errorResponse struct {
	Error string    `json:"error"`
	Kind  errs.Kind `json:"kind,omitempty"`
}

// update is pushed to websocket subscribers after every applied action.
type update struct {
	Type   string         `json:"type"`
	Action string         `json:"action"`
	Target engine.Outcome `json:"target"`
}

// act runs a through the engine and answers with the outcome.
func (s *Server) act(w http.ResponseWriter, r *http.Request, a engine.Action, status int) {
	out, err := s.engine.Handle(r.Context(), a)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.Broadcast(out.GameID, update{Type: "game_updated", Action: a.Name(), Target: out})
	writeJSON(w, status, out)
}

// principal authenticates the request. It writes 401 and returns false when the
// session is missing or invalid.
func (s *Server) principal(w http.ResponseWriter, r *http.Request) (engine.Principal, bool) {
	p, err := s.sessions.FromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Kind: errs.KindOf(err)})
		return engine.Principal{}, false
	}
	return p, true
}

// pathID parses the {id} path segment, writing 400 when it is not a uuid.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id in path"})
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	return false
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindUnauthorized:
		status = http.StatusForbidden
	case errs.KindInvalidStateTransition, errs.KindConflict:
		status = http.StatusConflict
	case errs.KindConstraintViolation:
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
