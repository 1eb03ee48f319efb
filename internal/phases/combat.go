package phases

import (
	"context"
	"fmt"
	"sort"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/orders"
	"github.com/legionforge/engine/internal/ruletables"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// maxCombatRounds bounds a single territory's combat so a pathological
// stat spread can never loop forever. spec.md §4.4 leaves the per-round
// arithmetic pluggable but requires rounds to be bounded.
const maxCombatRounds = 5

// unitStats is the precomputed template data a round needs, fetched once
// per unit rather than once per round.
type unitStats struct {
	attack       int
	defense      int
	siegeAttack  int
	siegeDefense int
}

// RunCombat resolves every territory holding units from at least two
// mutually hostile factions, per spec.md §4.4. Combat never touches the
// order queue — it reads unit/territory state left by Movement and writes
// organization, territory control, and building durability directly.
func RunCombat(ctx context.Context, s store.Store, guildID, turn int) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseCombat))
	rt := ruletables.New(s)

	units, err := s.ListUnits(ctx, guildID, store.UnitFilter{Status: types.UnitActive})
	if err != nil {
		return nil, fmt.Errorf("combat phase: list units: %w", err)
	}
	buildings, err := s.ListBuildings(ctx, guildID, types.BuildingActive)
	if err != nil {
		return nil, fmt.Errorf("combat phase: list buildings: %w", err)
	}
	territories, err := territorySet(ctx, s, guildID)
	if err != nil {
		return nil, fmt.Errorf("combat phase: %w", err)
	}
	wars, err := buildWarSides(ctx, s, guildID)
	if err != nil {
		return nil, fmt.Errorf("combat phase: %w", err)
	}

	unitsByTerritory := map[int][]*types.Unit{}
	for i := range units {
		u := &units[i]
		unitsByTerritory[u.CurrentTerritoryID] = append(unitsByTerritory[u.CurrentTerritoryID], u)
	}
	buildingsByTerritory := map[int][]*types.Building{}
	for i := range buildings {
		bd := &buildings[i]
		buildingsByTerritory[bd.TerritoryID] = append(buildingsByTerritory[bd.TerritoryID], bd)
	}

	territoryIDs := make([]int, 0, len(unitsByTerritory))
	for tid := range unitsByTerritory {
		territoryIDs = append(territoryIDs, tid)
	}
	sort.Ints(territoryIDs)

	for _, tid := range territoryIDs {
		present := unitsByTerritory[tid]
		if !hasHostilePresence(ctx, s, present, wars) {
			continue
		}
		terr := territories[tid]
		if err := resolveCombatAt(ctx, s, rt, &terr, present, buildingsByTerritory[tid], wars, turn, b); err != nil {
			return nil, fmt.Errorf("combat phase: territory %d: %w", tid, err)
		}
	}

	return b.Events(), nil
}

// homeFactionID is a unit's home faction per spec.md §4.7: unit.faction_id
// if set, else the owning character's represented faction.
func homeFactionID(ctx context.Context, s store.Store, u *types.Unit) (int, error) {
	if u.FactionID != 0 {
		return u.FactionID, nil
	}
	if u.Owner.Kind == types.OwnerCharacter {
		char, err := s.GetCharacter(ctx, u.Owner.CharacterID)
		if err != nil {
			if isNotFound(err) {
				return 0, nil
			}
			return 0, err
		}
		return char.RepresentedFactionID, nil
	}
	if u.Owner.Kind == types.OwnerFaction {
		return u.Owner.FactionID, nil
	}
	return 0, nil
}

func hasHostilePresence(ctx context.Context, s store.Store, present []*types.Unit, wars map[int]map[int]types.WarSide) bool {
	for i, u := range present {
		fi, err := homeFactionID(ctx, s, u)
		if err != nil || fi == 0 {
			continue
		}
		for _, v := range present[i+1:] {
			fj, err := homeFactionID(ctx, s, v)
			if err != nil || fj == 0 {
				continue
			}
			if hostileFactions(fi, fj, wars) {
				return true
			}
		}
	}
	return false
}

// partitionSides 2-colors the factions present at a territory over the
// hostility graph, starting from the lowest faction id for determinism.
// Factions with no hostile edge to anyone present are bystanders and sit
// out of the fight entirely.
func partitionSides(factionIDs []int, wars map[int]map[int]types.WarSide) (sideA, sideB map[int]bool) {
	sort.Ints(factionIDs)
	adj := map[int][]int{}
	for _, a := range factionIDs {
		for _, c := range factionIDs {
			if a != c && hostileFactions(a, c, wars) {
				adj[a] = append(adj[a], c)
			}
		}
	}

	color := map[int]int{}
	for _, f := range factionIDs {
		if color[f] != 0 {
			continue
		}
		queue := []int{f}
		color[f] = 1
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range adj[cur] {
				if color[nb] == 0 {
					if color[cur] == 1 {
						color[nb] = 2
					} else {
						color[nb] = 1
					}
					queue = append(queue, nb)
				}
			}
		}
	}

	sideA, sideB = map[int]bool{}, map[int]bool{}
	for f, c := range color {
		switch c {
		case 1:
			sideA[f] = true
		case 2:
			sideB[f] = true
		}
	}
	return sideA, sideB
}

func resolveCombatAt(
	ctx context.Context, s store.Store, rt *ruletables.Tables, terr *types.Territory,
	present []*types.Unit, buildings []*types.Building, wars map[int]map[int]types.WarSide,
	turn int, b *eventlog.Builder,
) error {
	factionOf := map[int]int{}
	var factionIDs []int
	for _, u := range present {
		fi, err := homeFactionID(ctx, s, u)
		if err != nil {
			return fmt.Errorf("resolve home faction: %w", err)
		}
		if fi == 0 {
			continue
		}
		if _, seen := factionOf[u.ID]; !seen {
			factionOf[u.ID] = fi
			factionIDs = append(factionIDs, fi)
		}
	}
	factionIDs = dedupInts(factionIDs)

	sideASet, sideBSet := partitionSides(factionIDs, wars)
	var aUnits, bUnits []*types.Unit
	for _, u := range present {
		switch {
		case sideASet[factionOf[u.ID]]:
			aUnits = append(aUnits, u)
		case sideBSet[factionOf[u.ID]]:
			bUnits = append(bUnits, u)
		}
	}
	if len(aUnits) == 0 || len(bUnits) == 0 {
		return nil
	}

	stats := map[int]unitStats{}
	for _, u := range append(append([]*types.Unit{}, aUnits...), bUnits...) {
		nation, err := unitNation(ctx, s, u)
		if err != nil {
			return fmt.Errorf("resolve unit nation: %w", err)
		}
		ut, err := rt.UnitType(ctx, terr.GuildID, u.Type, nation)
		if err != nil {
			return fmt.Errorf("get unit type for unit %d: %w", u.ID, err)
		}
		stats[u.ID] = unitStats{attack: ut.Attack, defense: ut.Defense, siegeAttack: ut.SiegeAttack, siegeDefense: ut.SiegeDefense}
	}

	b.Emit(eventlog.TypeCombatStarted, "territory", terr.ID,
		map[string]any{
			"territory_id": terr.ID, "side_a_faction_ids": sortedKeys(sideASet), "side_b_faction_ids": sortedKeys(sideBSet),
			"side_a_unit_count": len(aUnits), "side_b_unit_count": len(bUnits),
		}, combatAffected(aUnits, bUnits))

	totalSiegeA := sumSiege(aUnits, stats)
	totalSiegeB := sumSiege(bUnits, stats)

	rounds := 0
	for rounds < maxCombatRounds && len(aUnits) > 0 && len(bUnits) > 0 {
		rounds++
		aAttack := sumAttack(aUnits, stats)
		bAttack := sumAttack(bUnits, stats)

		damageA := applyDamage(bUnits, aAttack, stats)
		damageB := applyDamage(aUnits, bAttack, stats)

		aUnits = survivors(aUnits)
		bUnits = survivors(bUnits)

		b.Emit(eventlog.TypeCombatRound, "territory", terr.ID,
			map[string]any{
				"territory_id": terr.ID, "round": rounds,
				"side_a_damage_dealt": aAttack, "side_b_damage_dealt": bAttack,
				"side_a_casualties": damageB, "side_b_casualties": damageA,
				"side_a_remaining": len(aUnits), "side_b_remaining": len(bUnits),
			}, combatAffected(aUnits, bUnits))
	}

	var victorFaction int
	var victorSide string
	switch {
	case len(aUnits) > 0 && len(bUnits) == 0:
		victorSide = "SIDE_A"
		victorFaction = majorityFaction(aUnits, factionOf)
	case len(bUnits) > 0 && len(aUnits) == 0:
		victorSide = "SIDE_B"
		victorFaction = majorityFaction(bUnits, factionOf)
	default:
		victorSide = "STALEMATE"
	}

	// present holds the same *types.Unit pointers as aUnits/bUnits, so every
	// organization change made inside applyDamage is visible here even for
	// units eliminated out of the round's active slices. Persist all of
	// them; none are marked DISBANDED here — Organization phase (§4.9) owns
	// that transition, the same phase-boundary-only invariant check
	// recorded for Building.Durability in DESIGN.md's Open Question
	// decisions.
	for _, u := range present {
		if _, fought := stats[u.ID]; !fought {
			continue
		}
		if err := s.UpdateUnit(ctx, u); err != nil {
			return fmt.Errorf("update unit %d after combat: %w", u.ID, err)
		}
	}

	if victorSide != "STALEMATE" {
		b.Emit(eventlog.TypeCombatRetreat, "territory", terr.ID,
			map[string]any{"territory_id": terr.ID, "retreating_faction_ids": sortedKeys(loserSet(victorSide, sideASet, sideBSet))},
			nil)

		if victorFaction != 0 && !terr.Controller.Equal(types.OwnedByFaction(victorFaction)) {
			terr.Controller = types.OwnedByFaction(victorFaction)
			if err := s.UpdateTerritory(ctx, terr); err != nil {
				return fmt.Errorf("update territory %d controller: %w", terr.ID, err)
			}
			b.Emit(eventlog.TypeTerritoryCaptured, "territory", terr.ID,
				map[string]any{"territory_id": terr.ID, "captured_by_faction_id": victorFaction}, nil)
		}

		if err := applySiegeDamage(ctx, s, buildings, victorSide, totalSiegeA, totalSiegeB, b, terr.ID); err != nil {
			return err
		}
	}

	b.Emit(eventlog.TypeCombatEnded, "territory", terr.ID,
		map[string]any{"territory_id": terr.ID, "victor_side": victorSide, "victor_faction_id": victorFaction, "rounds_fought": rounds},
		combatAffected(aUnits, bUnits))
	return nil
}

func dedupInts(in []int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func sumAttack(units []*types.Unit, stats map[int]unitStats) int {
	total := 0
	for _, u := range units {
		total += stats[u.ID].attack
	}
	return total
}

func sumSiege(units []*types.Unit, stats map[int]unitStats) int {
	total := 0
	for _, u := range units {
		total += stats[u.ID].siegeAttack
	}
	return total
}

// applyDamage distributes totalAttack evenly (remainder to the
// lowest-id units) across targets, mitigated by each target's Defense, with
// a floor of 1 so combat always resolves within maxCombatRounds. Returns
// total organization lost across targets.
func applyDamage(targets []*types.Unit, totalAttack int, stats map[int]unitStats) int {
	if len(targets) == 0 || totalAttack <= 0 {
		return 0
	}
	sorted := append([]*types.Unit{}, targets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	share := totalAttack / len(sorted)
	remainder := totalAttack % len(sorted)
	total := 0
	for i, u := range sorted {
		dmg := share
		if i < remainder {
			dmg++
		}
		dmg -= stats[u.ID].defense
		if dmg < 1 {
			dmg = 1
		}
		u.Organization -= dmg
		total += dmg
	}
	return total
}

func survivors(units []*types.Unit) []*types.Unit {
	out := make([]*types.Unit, 0, len(units))
	for _, u := range units {
		if u.Organization > 0 {
			out = append(out, u)
		}
	}
	return out
}

func majorityFaction(units []*types.Unit, factionOf map[int]int) int {
	counts := map[int]int{}
	for _, u := range units {
		counts[factionOf[u.ID]]++
	}
	best, bestCount := 0, -1
	for _, fid := range sortedKeys(counts) {
		if counts[fid] > bestCount {
			best, bestCount = fid, counts[fid]
		}
	}
	return best
}

func loserSet(victorSide string, sideA, sideB map[int]bool) map[int]bool {
	if victorSide == "SIDE_A" {
		return sideB
	}
	return sideA
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func combatAffected(sides ...[]*types.Unit) []int {
	var out []int
	for _, units := range sides {
		for _, u := range units {
			if u.Owner.Kind == types.OwnerCharacter {
				out = append(out, u.Owner.CharacterID)
			}
			if u.CommanderCharacterID != 0 {
				out = append(out, u.CommanderCharacterID)
			}
		}
	}
	return out
}

// applySiegeDamage applies the victor's accumulated siege attack against
// every ACTIVE building in the contested territory once, at combat's end, rather
// than per round — spec.md names no per-round building arithmetic.
func applySiegeDamage(
	ctx context.Context, s store.Store, buildings []*types.Building, victorSide string,
	totalSiegeA, totalSiegeB int, b *eventlog.Builder, territoryID int,
) error {
	siege := totalSiegeB
	if victorSide == "SIDE_A" {
		siege = totalSiegeA
	}
	if siege <= 0 || len(buildings) == 0 {
		return nil
	}

	sorted := append([]*types.Building{}, buildings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	share := siege / len(sorted)
	remainder := siege % len(sorted)
	if share == 0 && remainder == 0 {
		return nil
	}
	for i, bd := range sorted {
		dmg := share
		if i < remainder {
			dmg++
		}
		if dmg <= 0 {
			continue
		}
		bd.Durability -= dmg
		if err := s.UpdateBuilding(ctx, bd); err != nil {
			return fmt.Errorf("update building %d after siege: %w", bd.ID, err)
		}
		b.Emit(eventlog.TypeBuildingCombatDamage, "building", bd.ID,
			map[string]any{"building_id": bd.ID, "territory_id": territoryID, "damage": dmg, "new_durability": bd.Durability}, nil)
	}
	return nil
}
