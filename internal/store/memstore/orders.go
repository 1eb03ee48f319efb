package memstore

import (
	"context"
	"sort"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func (s *Store) GetOrder(ctx context.Context, id int) (*types.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o *types.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *Store) ListOrders(ctx context.Context, guildID int, filter store.OrderFilter) ([]types.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Order
	for _, o := range s.orders {
		if o.GuildID != guildID {
			continue
		}
		if len(filter.Types) > 0 && !containsOrderType(filter.Types, o.OrderType) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsOrderStatus(filter.Statuses, o.Status) {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func containsOrderType(types_ []types.OrderType, t types.OrderType) bool {
	for _, x := range types_ {
		if x == t {
			return true
		}
	}
	return false
}

func containsOrderStatus(statuses []types.OrderStatus, st types.OrderStatus) bool {
	for _, x := range statuses {
		if x == st {
			return true
		}
	}
	return false
}

// SeedOrder inserts or replaces an order row, assigning an id if unset.
func (s *Store) SeedOrder(o types.Order) types.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		s.nextID++
		o.ID = s.nextID
	}
	cp := o
	s.orders[o.ID] = &cp
	return o
}
