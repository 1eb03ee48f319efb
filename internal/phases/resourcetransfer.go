package phases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/orders"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// transferPartyPayload names one side of a transfer by character or faction
// id — exactly one is ever set.
type transferPartyPayload struct {
	CharacterID int `json:"character_id"`
	FactionID   int `json:"faction_id"`
}

func (p transferPartyPayload) owner() types.Owner {
	switch {
	case p.CharacterID != 0:
		return types.OwnedByCharacter(p.CharacterID)
	case p.FactionID != 0:
		return types.OwnedByFaction(p.FactionID)
	default:
		return types.Unowned()
	}
}

type resourceTransferPayload struct {
	From           transferPartyPayload `json:"from"`
	To             transferPartyPayload `json:"to"`
	Requested      types.ResourceSet    `json:"requested"`
	Recurring      bool                 `json:"recurring"`
	TurnsRemaining int                  `json:"turns_remaining"`
}

type cancelTransferPayload struct {
	TransferOrderID int `json:"transfer_order_id"`
}

// RunResourceTransfer processes CANCEL_TRANSFER orders, then PENDING
// RESOURCE_TRANSFER orders, then ONGOING RESOURCE_TRANSFER orders, each
// group in priority-then-FIFO order, per spec.md §4.6.
func RunResourceTransfer(ctx context.Context, s store.Store, guildID, turn int) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseResourceTransfer))

	eligible, err := orders.Eligible(ctx, s, guildID, orders.PhaseResourceTransfer)
	if err != nil {
		return nil, fmt.Errorf("resource transfer phase: %w", err)
	}

	var cancels, pending, ongoing []*types.Order
	for i := range eligible {
		o := &eligible[i]
		switch {
		case o.OrderType == types.OrderCancelTransfer:
			cancels = append(cancels, o)
		case o.OrderType == types.OrderResourceTransfer && o.Status == types.StatusPending:
			pending = append(pending, o)
		case o.OrderType == types.OrderResourceTransfer && o.Status == types.StatusOngoing:
			ongoing = append(ongoing, o)
		default:
			if err := orders.FailNoHandler(ctx, s, o, turn); err != nil {
				return nil, fmt.Errorf("resource transfer phase: order %d: %w", o.ID, err)
			}
			b.Emit(eventlog.TypeOrderFailed, "order", o.ID,
				map[string]any{"order_type": string(o.OrderType), "error": "No handler"}, affectedOf(o))
		}
	}

	cancelledIDs := map[int]bool{}
	for _, o := range cancels {
		targetID, ok, err := handleCancelTransfer(ctx, s, o, turn, b)
		if err != nil {
			return nil, fmt.Errorf("resource transfer phase: cancel order %d: %w", o.ID, err)
		}
		if ok {
			cancelledIDs[targetID] = true
		}
	}

	for _, o := range pending {
		if cancelledIDs[o.ID] {
			continue
		}
		if err := executeResourceTransfer(ctx, s, guildID, o, turn, b); err != nil {
			return nil, fmt.Errorf("resource transfer phase: order %d: %w", o.ID, err)
		}
	}
	for _, o := range ongoing {
		if cancelledIDs[o.ID] {
			continue
		}
		if err := executeResourceTransfer(ctx, s, guildID, o, turn, b); err != nil {
			return nil, fmt.Errorf("resource transfer phase: order %d: %w", o.ID, err)
		}
	}

	return b.Events(), nil
}

// handleCancelTransfer marks the named RESOURCE_TRANSFER order CANCELLED.
// ok is true only when an ongoing/pending transfer was actually stopped,
// so the caller can skip executing it later in the same phase run.
func handleCancelTransfer(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) (int, bool, error) {
	var p cancelTransferPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return 0, false, failOrder(ctx, s, o, turn, b, "invalid order data")
	}

	target, err := s.GetOrder(ctx, p.TransferOrderID)
	if err != nil {
		if isNotFound(err) {
			return 0, false, failOrder(ctx, s, o, turn, b, "transfer not found")
		}
		return 0, false, fmt.Errorf("get order: %w", err)
	}
	if target.GuildID != o.GuildID || target.OrderType != types.OrderResourceTransfer {
		return 0, false, failOrder(ctx, s, o, turn, b, "not a resource transfer")
	}
	if target.Status.IsTerminal() {
		return 0, false, failOrder(ctx, s, o, turn, b, "transfer already finished")
	}

	target.Status = types.StatusCancelled
	target.UpdatedTurn = turn
	target.UpdatedAt = time.Now()
	if err := s.UpdateOrder(ctx, target); err != nil {
		return 0, false, fmt.Errorf("update target order: %w", err)
	}

	if err := succeedOrder(ctx, s, o, turn, nil); err != nil {
		return 0, false, err
	}
	b.Emit(eventlog.TypeTransferCancelled, "order", target.ID,
		map[string]any{"transfer_order_id": target.ID, "cancelled_by_order_id": o.ID}, affectedOf(o))
	return target.ID, true, nil
}

func executeResourceTransfer(ctx context.Context, s store.Store, guildID int, o *types.Order, turn int, b *eventlog.Builder) error {
	var p resourceTransferPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}
	from, to := p.From.owner(), p.To.owner()
	if !from.IsSet() || !to.IsSet() {
		return failOrder(ctx, s, o, turn, b, "invalid from/to")
	}

	fromOK, err := ownerExists(ctx, s, from)
	if err != nil {
		return fmt.Errorf("check sender: %w", err)
	}
	toOK, err := ownerExists(ctx, s, to)
	if err != nil {
		return fmt.Errorf("check recipient: %w", err)
	}
	if !fromOK || !toOK {
		reason := "sender"
		if fromOK {
			reason = "recipient"
		}
		o.Status = types.StatusFailed
		o.UpdatedTurn = turn
		o.UpdatedAt = time.Now()
		if err := s.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		b.Emit(eventlog.TypeTransferFailed, "order", o.ID,
			map[string]any{"order_id": o.ID, "reason": reason + " disappeared or invalid"}, affectedOf(o))
		return nil
	}

	fromBalances, err := getOwnerResources(ctx, s, guildID, from)
	if err != nil {
		return fmt.Errorf("get sender balances: %w", err)
	}
	deducted := deductAvailable(fromBalances, p.Requested)
	if err := setOwnerResources(ctx, s, guildID, from, subtractResources(fromBalances, deducted)); err != nil {
		return fmt.Errorf("update sender balances: %w", err)
	}

	toBalances, err := getOwnerResources(ctx, s, guildID, to)
	if err != nil {
		return fmt.Errorf("get recipient balances: %w", err)
	}
	if err := setOwnerResources(ctx, s, guildID, to, toBalances.Add(deducted)); err != nil {
		return fmt.Errorf("update recipient balances: %w", err)
	}

	isOngoing, termCompleted, turnsRemaining, err := advanceTransferTerm(&p)
	if err != nil {
		return fmt.Errorf("advance transfer term: %w", err)
	}
	if isOngoing {
		o.Status = types.StatusOngoing
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("re-encode order data: %w", err)
		}
		o.OrderData = raw
	} else {
		o.Status = types.StatusSuccess
	}
	o.UpdatedTurn = turn
	o.UpdatedAt = time.Now()
	if err := s.UpdateOrder(ctx, o); err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	eventType := eventlog.TypeTransferSuccess
	if !isFullTransfer(p.Requested, deducted) {
		eventType = eventlog.TypeTransferPartial
	}
	b.Emit(eventType, "order", o.ID,
		map[string]any{
			"order_id": o.ID, "requested_resources": p.Requested, "transferred_resources": deducted,
			"is_ongoing": isOngoing, "term_completed": termCompleted, "turns_remaining": turnsRemaining,
		}, transferAffected(o, from, to))
	return nil
}

func transferAffected(o *types.Order, from, to types.Owner) []int {
	var out []int
	if o.CharacterID != 0 {
		out = append(out, o.CharacterID)
	}
	if from.Kind == types.OwnerCharacter {
		out = append(out, from.CharacterID)
	}
	if to.Kind == types.OwnerCharacter {
		out = append(out, to.CharacterID)
	}
	return out
}

// advanceTransferTerm mutates p.TurnsRemaining in place and reports the new
// order lifecycle state: non-recurring orders always complete this turn;
// recurring orders with no term run forever until CANCEL_TRANSFER; recurring
// orders with a term decrement and complete when it reaches zero.
func advanceTransferTerm(p *resourceTransferPayload) (isOngoing, termCompleted bool, turnsRemaining int, err error) {
	if !p.Recurring {
		return false, false, 0, nil
	}
	if p.TurnsRemaining <= 0 {
		return true, false, 0, nil
	}
	p.TurnsRemaining--
	if p.TurnsRemaining <= 0 {
		return false, true, 0, nil
	}
	return true, false, p.TurnsRemaining, nil
}

func ownerExists(ctx context.Context, s store.Store, o types.Owner) (bool, error) {
	switch o.Kind {
	case types.OwnerCharacter:
		_, err := s.GetCharacter(ctx, o.CharacterID)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	case types.OwnerFaction:
		_, err := s.GetFaction(ctx, o.FactionID)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	default:
		return false, nil
	}
}

func getOwnerResources(ctx context.Context, s store.Store, guildID int, o types.Owner) (types.ResourceSet, error) {
	switch o.Kind {
	case types.OwnerCharacter:
		pr, err := s.GetPlayerResources(ctx, guildID, o.CharacterID)
		if err != nil {
			if isNotFound(err) {
				return types.ResourceSet{}, nil
			}
			return nil, err
		}
		return pr.Balances, nil
	case types.OwnerFaction:
		fr, err := s.GetFactionResources(ctx, guildID, o.FactionID)
		if err != nil {
			if isNotFound(err) {
				return types.ResourceSet{}, nil
			}
			return nil, err
		}
		return fr.Balances, nil
	default:
		return nil, fmt.Errorf("owner not set")
	}
}

func setOwnerResources(ctx context.Context, s store.Store, guildID int, o types.Owner, balances types.ResourceSet) error {
	switch o.Kind {
	case types.OwnerCharacter:
		return s.SetPlayerResources(ctx, &types.PlayerResources{CharacterID: o.CharacterID, GuildID: guildID, Balances: balances})
	case types.OwnerFaction:
		return s.SetFactionResources(ctx, &types.FactionResources{FactionID: o.FactionID, GuildID: guildID, Balances: balances})
	default:
		return fmt.Errorf("owner not set")
	}
}

// deductAvailable returns, per resource kind, min(requested, available) —
// never more than the sender actually holds.
func deductAvailable(balances, requested types.ResourceSet) types.ResourceSet {
	out := types.ResourceSet{}
	for _, k := range types.AllResourceKinds {
		req := requested.Get(k)
		if req <= 0 {
			continue
		}
		take := req
		if avail := balances.Get(k); avail < take {
			take = avail
		}
		if take > 0 {
			out[k] = take
		}
	}
	return out
}

func subtractResources(balances, deduction types.ResourceSet) types.ResourceSet {
	out := balances.Clone()
	for k, v := range deduction {
		nv := out.Get(k) - v
		if nv < 0 {
			nv = 0
		}
		out[k] = nv
	}
	return out
}

func isFullTransfer(requested, deducted types.ResourceSet) bool {
	for _, k := range types.AllResourceKinds {
		if requested.Get(k) != deducted.Get(k) {
			return false
		}
	}
	return true
}
