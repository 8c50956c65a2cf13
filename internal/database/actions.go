package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
)

// InsertActions stores a batch of action records in one transaction.
func InsertActions(ctx context.Context, pool *pgxpool.Pool, recs []engine.ActionRecord) error {
	q := `
		INSERT INTO game_actions (
			game_id, actor_user_id, action_type, target_kind, target_id, action_payload, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			_, err := tx.Exec(ctx, q,
				rec.GameID, rec.ActorUserID, rec.ActionType, rec.TargetKind, rec.TargetID,
				[]byte(rec.ActionPayload), time.UnixMilli(rec.Timestamp),
			)
			if err != nil {
				return fmt.Errorf("insert action %s: %w", rec.ActionType, err)
			}
		}
		return nil
	})
}
