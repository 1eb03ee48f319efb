// Package ruletables is a read-through cache over the immutable-per-turn
// template tables (UnitType, BuildingType) plus the static terrain-cost rule
// (TerrainCost). Grounded on the teacher's
// storage/sqlite/blocked_cache.go: a materialized, fully-rebuilt cache
// rather than incremental invalidation, because rebuilds here are cheap and
// correctness is easier to reason about than partial updates. Unlike the
// teacher's cache (invalidated by writes within the same transaction),
// these tables are declared immutable for the duration of a turn, and each
// phase builds its own Tables with New, so a cache never outlives one
// phase run.
package ruletables

import (
	"context"
	"fmt"
	"sync"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// Tables is a per-guild cache of UnitType and BuildingType lookups backed
// by a Store. Safe for concurrent use by the per-guild worker pool, though
// in practice each Tables is owned by exactly one guild's goroutine.
type Tables struct {
	store store.Store

	mu            sync.RWMutex
	unitTypes     map[string]*types.UnitType
	buildingTypes map[string]*types.BuildingType
}

// New returns a Tables backed by s with an empty cache.
func New(s store.Store) *Tables {
	return &Tables{
		store:         s,
		unitTypes:     map[string]*types.UnitType{},
		buildingTypes: map[string]*types.BuildingType{},
	}
}

// Reset clears the cache. Call once per resolve_turn before any phase reads
// a template, since a UnitType or BuildingType row is never mutated mid-turn
// but may differ turn to turn (e.g. an admin edits costs between turns).
func (t *Tables) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unitTypes = map[string]*types.UnitType{}
	t.buildingTypes = map[string]*types.BuildingType{}
}

func unitTypeKey(guildID int, typeID, nation string) string {
	return fmt.Sprintf("%d:%s:%s", guildID, typeID, nation)
}

// UnitType returns the cached template, fetching and caching it on a miss.
func (t *Tables) UnitType(ctx context.Context, guildID int, typeID, nation string) (*types.UnitType, error) {
	key := unitTypeKey(guildID, typeID, nation)

	t.mu.RLock()
	if ut, ok := t.unitTypes[key]; ok {
		t.mu.RUnlock()
		return ut, nil
	}
	t.mu.RUnlock()

	ut, err := t.store.GetUnitType(ctx, guildID, typeID, nation)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.unitTypes[key] = ut
	t.mu.Unlock()
	return ut, nil
}

func buildingTypeKey(guildID int, typeID string) string {
	return fmt.Sprintf("%d:%s", guildID, typeID)
}

// BuildingType returns the cached template, fetching and caching it on a miss.
func (t *Tables) BuildingType(ctx context.Context, guildID int, typeID string) (*types.BuildingType, error) {
	key := buildingTypeKey(guildID, typeID)

	t.mu.RLock()
	if bt, ok := t.buildingTypes[key]; ok {
		t.mu.RUnlock()
		return bt, nil
	}
	t.mu.RUnlock()

	bt, err := t.store.GetBuildingType(ctx, guildID, typeID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.buildingTypes[key] = bt
	t.mu.Unlock()
	return bt, nil
}
