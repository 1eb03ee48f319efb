package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) ScheduleTask(ctx context.Context, t *types.ScheduledTask) error {
	res, err := s.exec.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (guild_id, task, parameter, scheduled_time, recipient_id, sender_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.GuildID, t.Task, t.Parameter, t.ScheduledTime, t.RecipientID, t.SenderID)
	if err != nil {
		return wrapDBError("schedule task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapDBError("schedule task", err)
	}
	t.ID = int(id)
	return nil
}

// ClaimNextTask selects the earliest-scheduled eligible row with FOR UPDATE
// SKIP LOCKED so concurrent Hawky workers never double-claim the same task,
// then deletes it inside the same transaction as the hand-off. Callers not
// already inside WithTx get one here so the select-then-delete pair is
// atomic even on the top-level Store.
func (s *Store) ClaimNextTask(ctx context.Context, now time.Time) (*types.ScheduledTask, error) {
	if _, isTx := s.exec.(*sql.Tx); isTx {
		return s.claimNextTaskTx(ctx, now)
	}
	var claimed *types.ScheduledTask
	err := s.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		t, err := tx.(*Store).claimNextTaskTx(ctx, now)
		if err != nil {
			return err
		}
		claimed = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *Store) claimNextTaskTx(ctx context.Context, now time.Time) (*types.ScheduledTask, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, task, parameter, scheduled_time, recipient_id, sender_id
		FROM scheduled_tasks
		WHERE scheduled_time <= ?
		ORDER BY scheduled_time ASC, id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`, now)

	var t types.ScheduledTask
	if err := row.Scan(&t.ID, &t.GuildID, &t.Task, &t.Parameter, &t.ScheduledTime,
		&t.RecipientID, &t.SenderID); err != nil {
		return nil, wrapDBError("claim next task", err)
	}

	if _, err := s.exec.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, t.ID); err != nil {
		return nil, wrapDBError("claim next task", err)
	}
	return &t, nil
}
