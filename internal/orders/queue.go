package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// Eligible fetches every PENDING or ONGOING order dispatched to phase p for
// guildID, sorted ascending (priority, submitted_at, id) as spec.md §4.1
// requires.
func Eligible(ctx context.Context, s store.Store, guildID int, p Phase) ([]types.Order, error) {
	all, err := s.ListOrders(ctx, guildID, store.OrderFilter{
		Types:    ForPhase(p),
		Statuses: []types.OrderStatus{types.StatusPending, types.StatusOngoing},
	})
	if err != nil {
		return nil, fmt.Errorf("list eligible orders for phase %s: %w", p, err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		pi, _ := PriorityFor(all[i].OrderType)
		pj, _ := PriorityFor(all[j].OrderType)
		if pi != pj {
			return pi < pj
		}
		if !all[i].SubmittedAt.Equal(all[j].SubmittedAt) {
			return all[i].SubmittedAt.Before(all[j].SubmittedAt)
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

// FailNoHandler marks o FAILED with {"error": "No handler"} and persists
// it. Called when a phase is handed an order type that the dispatch table
// in phase.go routes to it but the phase has no handler for — dispatch
// table drift from the handler set, not a player
// error, but still surfaced the same way a player-caused failure would be.
func FailNoHandler(ctx context.Context, s store.Store, o *types.Order, currentTurn int) error {
	result, err := json.Marshal(map[string]any{"error": "No handler"})
	if err != nil {
		return fmt.Errorf("marshal no-handler result: %w", err)
	}
	o.Status = types.StatusFailed
	o.ResultData = result
	o.UpdatedTurn = currentTurn
	o.UpdatedAt = time.Now()
	return s.UpdateOrder(ctx, o)
}
