package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame(t *testing.T) *models.Game {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return &models.Game{Record: models.Record{ID: id}, PlayerLimit: 4, State: models.GameLobby}
}

func TestSaveAndLoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	g := newGame(t)
	require.NoError(t, s.Save(ctx, g))
	assert.Equal(t, int64(1), g.Version)

	e1, err := s.Load(ctx, models.KindGame, g.ID)
	require.NoError(t, err)
	e2, err := s.Load(ctx, models.KindGame, g.ID)
	require.NoError(t, err)
	assert.NotSame(t, e1, e2)
	assert.Equal(t, g, e1)

	e1.(*models.Game).PlayerLimit = 8
	e3, err := s.Load(ctx, models.KindGame, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, e3.(*models.Game).PlayerLimit)
}

func TestLoadUnknown(t *testing.T) {
	s := NewStore()
	g := newGame(t)
	require.NoError(t, s.Save(context.Background(), g))

	_, err := s.Load(context.Background(), models.KindGame, uuid.New())
	assert.ErrorIs(t, err, errs.NotFound)
	_, err = s.Load(context.Background(), models.KindRound, g.ID)
	assert.ErrorIs(t, err, errs.NotFound, "kind must match")
}

func TestSaveStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	g := newGame(t)
	require.NoError(t, s.Save(ctx, g))

	a, err := s.Load(ctx, models.KindGame, g.ID)
	require.NoError(t, err)
	b, err := s.Load(ctx, models.KindGame, g.ID)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, a))
	err = s.Save(ctx, b)
	assert.ErrorIs(t, err, errs.Conflict)
	assert.Equal(t, int64(1), b.Meta().Version)
}

func TestSaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	g := newGame(t)
	require.NoError(t, s.Save(ctx, g))

	fresh := newGame(t)
	dup := newGame(t)
	dup.ID = g.ID
	err := s.Save(ctx, fresh, dup)
	assert.ErrorIs(t, err, errs.Conflict)
	assert.Zero(t, fresh.Version)
	assert.Equal(t, 1, s.Len())
}

func TestFindUserByName(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := &models.User{Record: models.Record{ID: uuid.New()}, Username: "Alice", Role: models.RoleUser}
	require.NoError(t, s.Save(ctx, u))

	got, err := s.FindUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.FindUserByName(ctx, "bob")
	assert.ErrorIs(t, err, errs.NotFound)

	taken := &models.User{Record: models.Record{ID: uuid.New()}, Username: "ALICE"}
	assert.ErrorIs(t, s.Save(ctx, taken), errs.ConstraintViolation)
}
