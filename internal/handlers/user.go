package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/auth"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Token    string      `json:"token"`
}

// CreateUserHandler registers a user and logs them in.
//
// Request payload:
//
//	{
//	  "username": "alice",
//	  "password": "password"
//	}
//
// The response carries the session token, which is also set as the auth cookie.
func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if !decode(w, r, &req) {
			return
		}
		u, err := auth.Register(r.Context(), s.store, req.Username, req.Password, models.RoleUser)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.WithField("user", u.Username).Info("user registered")
		s.issue(w, u, http.StatusCreated)
	}
}

// LoginHandler checks credentials and sets the auth cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if !decode(w, r, &req) {
			return
		}
		u, err := auth.Authenticate(r.Context(), s.store, req.Username, req.Password)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.issue(w, u, http.StatusOK)
	}
}

func (s *Server) issue(w http.ResponseWriter, u *models.User, status int) {
	token, err := s.sessions.Issue(u)
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.SetCookie(w, s.sessions.Cookie(token))
	writeJSON(w, status, userResponse{ID: u.ID, Username: u.Username, Role: u.Role, Token: token})
}
