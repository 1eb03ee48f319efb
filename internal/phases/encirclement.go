package phases

import (
	"context"
	"fmt"
	"sort"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/orders"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// RunEncirclement flags every ACTIVE land unit ENCIRCLED whose current
// territory has no path, over friendly-or-uncontrolled non-water
// territory, to a territory directly controlled by its home faction or an
// ally, per spec.md §4.7. The encircled set carries forward to Upkeep.
func RunEncirclement(ctx context.Context, s store.Store, guildID, turn int) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseEncirclement))

	units, err := s.ListUnits(ctx, guildID, store.UnitFilter{Status: types.UnitActive})
	if err != nil {
		return nil, fmt.Errorf("encirclement phase: list units: %w", err)
	}
	territories, err := territorySet(ctx, s, guildID)
	if err != nil {
		return nil, fmt.Errorf("encirclement phase: %w", err)
	}
	neighbors, err := adjacencyList(ctx, s, guildID)
	if err != nil {
		return nil, fmt.Errorf("encirclement phase: %w", err)
	}
	territoryFaction, err := territoryFactionMap(ctx, s, territories)
	if err != nil {
		return nil, fmt.Errorf("encirclement phase: %w", err)
	}

	var land []*types.Unit
	for i := range units {
		if !units[i].IsNaval {
			land = append(land, &units[i])
		}
	}
	sort.Slice(land, func(i, j int) bool { return land[i].ID < land[j].ID })

	allyCache := map[int]map[int]bool{}
	for _, u := range land {
		home, err := homeFactionID(ctx, s, u)
		if err != nil {
			return nil, fmt.Errorf("encirclement phase: unit %d: %w", u.ID, err)
		}
		if home == 0 {
			continue
		}
		allies, ok := allyCache[home]
		if !ok {
			allies, err = alliedFactionSet(ctx, s, guildID, home)
			if err != nil {
				return nil, fmt.Errorf("encirclement phase: faction %d: %w", home, err)
			}
			allyCache[home] = allies
		}

		if isEncircled(u, home, allies, territories, neighbors, territoryFaction) {
			b.Emit(eventlog.TypeUnitEncircled, "unit", u.ID,
				map[string]any{"unit_id": u.ID, "territory_id": u.CurrentTerritoryID}, unitAffected(u))
		}
	}

	return b.Events(), nil
}

func unitAffected(u *types.Unit) []int {
	var out []int
	if u.Owner.Kind == types.OwnerCharacter {
		out = append(out, u.Owner.CharacterID)
	}
	if u.CommanderCharacterID != 0 {
		out = append(out, u.CommanderCharacterID)
	}
	return out
}

func adjacencyList(ctx context.Context, s store.Store, guildID int) (map[int][]int, error) {
	adj, err := s.ListAdjacency(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list adjacency: %w", err)
	}
	out := map[int][]int{}
	for _, a := range adj {
		out[a.A] = append(out[a.A], a.B)
		out[a.B] = append(out[a.B], a.A)
	}
	return out, nil
}

// territoryFactionMap resolves each controlled territory to the faction id
// that effectively controls it: a faction-owned territory's own id, or a
// character-owned territory's represented faction. Uncontrolled territories
// are simply absent from the map.
func territoryFactionMap(ctx context.Context, s store.Store, territories map[int]types.Territory) (map[int]int, error) {
	out := map[int]int{}
	charFaction := map[int]int{}
	for id, t := range territories {
		if !t.Controller.IsSet() {
			continue
		}
		switch t.Controller.Kind {
		case types.OwnerFaction:
			out[id] = t.Controller.FactionID
		case types.OwnerCharacter:
			fid, ok := charFaction[t.Controller.CharacterID]
			if !ok {
				char, err := s.GetCharacter(ctx, t.Controller.CharacterID)
				switch {
				case err == nil:
					fid = char.RepresentedFactionID
				case isNotFound(err):
					fid = 0
				default:
					return nil, fmt.Errorf("get character %d: %w", t.Controller.CharacterID, err)
				}
				charFaction[t.Controller.CharacterID] = fid
			}
			if fid != 0 {
				out[id] = fid
			}
		}
	}
	return out, nil
}

func alliedFactionSet(ctx context.Context, s store.Store, guildID, factionID int) (map[int]bool, error) {
	alliances, err := s.ListActiveAlliancesForFaction(ctx, guildID, factionID)
	if err != nil {
		return nil, fmt.Errorf("list alliances: %w", err)
	}
	out := map[int]bool{}
	for _, al := range alliances {
		other := al.FactionAID
		if other == factionID {
			other = al.FactionBID
		}
		out[other] = true
	}
	return out, nil
}

// isEncircled runs a breadth-first search from u's current territory,
// stepping only through non-water territories that are uncontrolled,
// controlled by home, or controlled by an ally, and reports whether that
// search ever reaches a territory directly controlled by home or an ally.
func isEncircled(
	u *types.Unit, home int, allies map[int]bool,
	territories map[int]types.Territory, neighbors map[int][]int, territoryFaction map[int]int,
) bool {
	friendly := func(id int) bool {
		fid, controlled := territoryFaction[id]
		return controlled && (fid == home || allies[fid])
	}
	hostile := func(id int) bool {
		fid, controlled := territoryFaction[id]
		return controlled && fid != home && !allies[fid]
	}
	water := func(id int) bool {
		t, ok := territories[id]
		return ok && t.TerrainType.IsWater()
	}

	start := u.CurrentTerritoryID
	if friendly(start) {
		return false
	}

	visited := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range neighbors[cur] {
			if visited[next] || water(next) || hostile(next) {
				continue
			}
			if friendly(next) {
				return false
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return true
}
