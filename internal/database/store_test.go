package database

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore connects to TEST_DATABASE_URL; the tests are skipped without it.
func testStore(t *testing.T) *Store {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return NewStore(pool)
}

func TestStoreVersioning(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	g := &models.Game{Record: models.Record{ID: uuid.New()}, PlayerLimit: 4, State: models.GameLobby}
	require.NoError(t, s.Save(ctx, g))
	assert.Equal(t, int64(1), g.Version)

	a, err := s.Load(ctx, models.KindGame, g.ID)
	require.NoError(t, err)
	b, err := s.Load(ctx, models.KindGame, g.ID)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, a))
	assert.ErrorIs(t, s.Save(ctx, b), errs.Conflict)
	again := &models.Game{Record: models.Record{ID: g.ID}}
	assert.ErrorIs(t, s.Save(ctx, again), errs.Conflict, "insert of an existing id")

	_, err = s.Load(ctx, models.KindRound, g.ID)
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestStoreUsers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	name := "user-" + uuid.NewString()[:8]

	u := &models.User{Record: models.Record{ID: uuid.New()}, Username: name, Role: models.RoleUser}
	require.NoError(t, s.Save(ctx, u))
	got, err := s.FindUserByName(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := &models.User{Record: models.Record{ID: uuid.New()}, Username: name}
	assert.ErrorIs(t, s.Save(ctx, dup), errs.ConstraintViolation)
}

func TestInsertActions(t *testing.T) {
	s := testStore(t)
	recs := []engine.ActionRecord{{
		GameID:        uuid.New(),
		ActorUserID:   uuid.New(),
		ActionType:    "create_game",
		TargetKind:    models.KindGame,
		TargetID:      uuid.New(),
		ActionPayload: []byte(`{"player_limit":4}`),
		Timestamp:     1700000000000,
	}}
	require.NoError(t, InsertActions(context.Background(), s.pool, recs))
}
