package auth

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("hunter2", "plain")
	assert.ErrorIs(t, err, ErrInvalidHash)
	_, err = VerifyPassword("hunter2", strings.Replace(hash, "v=19", "v=16", 1))
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func testUser() *models.User {
	return &models.User{Record: models.Record{ID: uuid.New()}, Username: "alice", Role: models.RoleAdmin}
}

func TestSessionRoundTrip(t *testing.T) {
	s, err := NewSessions(time.Hour)
	require.NoError(t, err)
	u := testUser()

	token, err := s.Issue(u)
	require.NoError(t, err)
	p, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, "alice", p.Username)
	assert.True(t, p.IsAdmin())

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(s.Cookie(token))
	fromCookie, err := s.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, p, fromCookie)

	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	fromHeader, err := s.FromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, p, fromHeader)
}

func TestSessionRejectsBadTokens(t *testing.T) {
	s, err := NewSessions(time.Minute)
	require.NoError(t, err)
	other, err := NewSessions(time.Minute)
	require.NoError(t, err)

	token, err := other.Issue(testUser())
	require.NoError(t, err)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, errs.Unauthorized, "foreign key")

	token, err = s.Issue(testUser())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, errs.Unauthorized, "expired")

	_, err = s.FromRequest(httptest.NewRequest("GET", "/", nil))
	assert.ErrorIs(t, err, errs.Unauthorized, "missing")
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	u, err := Register(ctx, store, " bob ", "correct horse", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.NotEqual(t, "correct horse", u.Password)

	_, err = Register(ctx, store, "BOB", "another password", models.RoleUser)
	assert.ErrorIs(t, err, errs.ConstraintViolation)
	_, err = Register(ctx, store, "carol", "short", models.RoleUser)
	assert.ErrorIs(t, err, errs.ConstraintViolation)

	got, err := Authenticate(ctx, store, "bob", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = Authenticate(ctx, store, "bob", "wrong horse")
	assert.ErrorIs(t, err, errs.Unauthorized)
	_, err = Authenticate(ctx, store, "nobody", "correct horse")
	assert.ErrorIs(t, err, errs.Unauthorized)
}
