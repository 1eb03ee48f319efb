package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetOrder(ctx context.Context, id int) (*types.Order, error) {
	row := s.exec.QueryRowContext(ctx, `
		SELECT id, guild_id, order_type, status, submitted_at, character_id,
		       submitting_faction_id, order_data, result_data, turn_submitted,
		       updated_at, updated_turn
		FROM orders WHERE id = ?`, id)
	return scanOrder(row)
}

func scanOrder(row scannableRow) (*types.Order, error) {
	var o types.Order
	var resultData sql.NullString
	if err := row.Scan(&o.ID, &o.GuildID, &o.OrderType, &o.Status, &o.SubmittedAt, &o.CharacterID,
		&o.SubmittingFactionID, &o.OrderData, &resultData, &o.TurnSubmitted, &o.UpdatedAt,
		&o.UpdatedTurn); err != nil {
		return nil, wrapDBError("get order", err)
	}
	if resultData.Valid {
		o.ResultData = []byte(resultData.String)
	}
	return &o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o *types.Order) error {
	var resultData any
	if o.ResultData != nil {
		resultData = []byte(o.ResultData)
	}
	res, err := s.exec.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, result_data = ?, updated_at = ?, updated_turn = ?
		WHERE id = ?`,
		o.Status, resultData, o.UpdatedAt, o.UpdatedTurn, o.ID)
	if err != nil {
		return wrapDBError("update order", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError("update order", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListOrders sorts by (priority-free submit order): submitted_at then id,
// matching the deterministic (priority, submitted_at, id) queue ordering —
// priority itself is assigned by package orders from OrderType, not stored.
func (s *Store) ListOrders(ctx context.Context, guildID int, filter store.OrderFilter) ([]types.Order, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, guild_id, order_type, status, submitted_at, character_id,
		       submitting_faction_id, order_data, result_data, turn_submitted,
		       updated_at, updated_turn
		FROM orders WHERE guild_id = ?`)
	args := []any{guildID}

	if len(filter.Types) > 0 {
		query.WriteString(" AND order_type IN (" + placeholders(len(filter.Types)) + ")")
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}
	if len(filter.Statuses) > 0 {
		query.WriteString(" AND status IN (" + placeholders(len(filter.Statuses)) + ")")
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	query.WriteString(" ORDER BY submitted_at ASC, id ASC")

	rows, err := s.exec.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, wrapDBError("list orders", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, wrapDBError("list orders", rows.Err())
}

func placeholders(n int) string {
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
	}
	return b.String()
}
