// Package auth issues and verifies session tokens and password hashes.
package auth

import (
	"crypto/ed25519"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
)

// CookieName is the cookie carrying the session token.
const CookieName = "auth_token"

var timeNow = time.Now

type claims struct {
	Username string      `json:"name"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Sessions signs tokens with an ed25519 key pair generated at startup, so tokens do not
// survive a restart.
type Sessions struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	ttl     time.Duration
	now     func() time.Time
}

// NewSessions creates a key pair. A zero ttl issues tokens without expiry.
func NewSessions(ttl time.Duration) (*Sessions, error) {
	public, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &Sessions{private: private, public: public, ttl: ttl, now: timeNow}, nil
}

// Issue creates a signed token for u.
func (s *Sessions) Issue(u *models.User) (string, error) {
	c := claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  u.ID.String(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	if s.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(s.now().Add(s.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, c).SignedString(s.private)
}

// Verify checks token and returns the principal it was issued for.
func (s *Sessions) Verify(token string) (engine.Principal, error) {
	var c claims
	t, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.public, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return engine.Principal{}, errs.Wrap(errs.KindUnauthorized, err, "invalid session token")
	}
	if !t.Valid {
		return engine.Principal{}, errs.Unauthorizedf("invalid session token")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return engine.Principal{}, errs.Wrap(errs.KindUnauthorized, err, "invalid subject in session token")
	}
	return engine.Principal{UserID: id, Username: c.Username, Role: c.Role}, nil
}

// FromRequest reads the token from the auth cookie or a bearer Authorization header.
func (s *Sessions) FromRequest(r *http.Request) (engine.Principal, error) {
	var token string
	if c, err := r.Cookie(CookieName); err == nil {
		token = c.Value
	} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	if token == "" {
		return engine.Principal{}, errs.Unauthorizedf("missing session token")
	}
	return s.Verify(token)
}

// Cookie wraps token into the session cookie.
func (s *Sessions) Cookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if s.ttl > 0 {
		c.MaxAge = int(s.ttl.Seconds())
	}
	return c
}
