package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/errs"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/models"
)

const uniqueViolation = "23505"

// Store keeps entities as JSONB documents guarded by a version column.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Load(ctx context.Context, kind models.Kind, id uuid.UUID) (models.Entity, error) {
	q := `SELECT version, data FROM doppelkopf_entities WHERE kind = $1 AND id = $2`
	var version int64
	var data []byte
	err := s.pool.QueryRow(ctx, q, kind, id).Scan(&version, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("%s %s not found", kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	return decode(kind, version, data)
}

// Save writes entities in one transaction; any stale version rolls back all of them.
func (s *Store) Save(ctx context.Context, entities ...models.Entity) error {
	insertQ := `
		INSERT INTO doppelkopf_entities (kind, id, version, data, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	updateQ := `
		UPDATE doppelkopf_entities
		SET version = version + 1, data = $3, updated_at = $4
		WHERE kind = $1 AND id = $2 AND version = $5
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, e := range entities {
			meta := e.Meta()
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode %s: %w", e.Kind(), err)
			}
			var tag pgconn.CommandTag
			if meta.Version == 0 {
				tag, err = tx.Exec(ctx, insertQ, e.Kind(), meta.ID, data, meta.CreatedAt, meta.UpdatedAt)
			} else {
				tag, err = tx.Exec(ctx, updateQ, e.Kind(), meta.ID, data, meta.UpdatedAt, meta.Version)
			}
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return errs.Conflictf("%s %s was modified concurrently", e.Kind(), meta.ID)
			}
		}
		return nil
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errs.Wrap(errs.KindConstraintViolation, err, "duplicate entry")
	}
	if err != nil {
		if errs.KindOf(err) != "" {
			return err
		}
		return fmt.Errorf("save entities: %w", err)
	}
	for _, e := range entities {
		e.Meta().Version++
	}
	return nil
}

// FindUserByName looks up a user by case-insensitive name.
func (s *Store) FindUserByName(ctx context.Context, username string) (*models.User, error) {
	q := `
		SELECT version, data FROM doppelkopf_entities
		WHERE kind = 'user' AND lower(data->>'username') = lower($1)
	`
	var version int64
	var data []byte
	err := s.pool.QueryRow(ctx, q, username).Scan(&version, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("user %q not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	e, err := decode(models.KindUser, version, data)
	if err != nil {
		return nil, err
	}
	return e.(*models.User), nil
}

func decode(kind models.Kind, version int64, data []byte) (models.Entity, error) {
	e, err := models.New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	e.Meta().Version = version
	return e, nil
}
