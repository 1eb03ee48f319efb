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

// RunUpkeep deducts faction spending, then building upkeep, then unit
// upkeep, in that order, per spec.md §4.8. encircled is the unit id set
// Encirclement flagged earlier in the same turn; encircled units pay no
// upkeep and instead lose one organization per resource type in their
// upkeep.
func RunUpkeep(ctx context.Context, s store.Store, guildID, turn int, encircled map[int]bool) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseUpkeep))
	rt := ruletables.New(s)

	if err := runFactionSpending(ctx, s, guildID, b); err != nil {
		return nil, fmt.Errorf("upkeep phase: %w", err)
	}
	if err := runBuildingUpkeep(ctx, s, guildID, b); err != nil {
		return nil, fmt.Errorf("upkeep phase: %w", err)
	}
	if err := runUnitUpkeep(ctx, s, rt, guildID, encircled, b); err != nil {
		return nil, fmt.Errorf("upkeep phase: %w", err)
	}
	return b.Events(), nil
}

func runFactionSpending(ctx context.Context, s store.Store, guildID int, b *eventlog.Builder) error {
	factions, err := s.ListFactions(ctx, guildID)
	if err != nil {
		return fmt.Errorf("list factions: %w", err)
	}
	sort.Slice(factions, func(i, j int) bool { return factions[i].ID < factions[j].ID })

	for _, f := range factions {
		if f.Spending.IsZero() {
			continue
		}
		paid, deficit, err := payUpkeep(ctx, s, guildID, types.OwnedByFaction(f.ID), f.Spending)
		if err != nil {
			return fmt.Errorf("faction %d spending: %w", f.ID, err)
		}

		affected, err := permissionAffected(ctx, s, guildID, f.ID, types.PermissionFinancial)
		if err != nil {
			return fmt.Errorf("faction %d: %w", f.ID, err)
		}

		if len(deficit) == 0 {
			b.Emit(eventlog.TypeFactionSpending, "faction", f.ID,
				map[string]any{"faction_id": f.ID, "amounts_spent": paid}, affected)
			continue
		}
		shortfall := shortfallAmounts(f.Spending, paid)
		b.Emit(eventlog.TypeFactionSpendingPartial, "faction", f.ID,
			map[string]any{"faction_id": f.ID, "amounts_spent": paid, "shortfall": shortfall}, affected)
	}
	return nil
}

func runBuildingUpkeep(ctx context.Context, s store.Store, guildID int, b *eventlog.Builder) error {
	buildings, err := s.ListBuildings(ctx, guildID, types.BuildingActive)
	if err != nil {
		return fmt.Errorf("list buildings: %w", err)
	}
	sort.Slice(buildings, func(i, j int) bool {
		if buildings[i].Durability != buildings[j].Durability {
			return buildings[i].Durability < buildings[j].Durability
		}
		if buildings[i].TerritoryID != buildings[j].TerritoryID {
			return buildings[i].TerritoryID < buildings[j].TerritoryID
		}
		return buildings[i].ID < buildings[j].ID
	})

	territories, err := territorySet(ctx, s, guildID)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	for i := range buildings {
		bldg := &buildings[i]
		if bldg.Upkeep.IsZero() {
			continue
		}

		var paid types.ResourceSet
		var deficit []types.ResourceKind
		t, ok := territories[bldg.TerritoryID]
		if !ok || !t.Controller.IsSet() {
			paid = types.ResourceSet{}
			for _, k := range types.AllResourceKinds {
				if bldg.Upkeep.Get(k) > 0 {
					deficit = append(deficit, k)
				}
			}
		} else {
			paid, deficit, err = payUpkeep(ctx, s, guildID, t.Controller, bldg.Upkeep)
			if err != nil {
				return fmt.Errorf("building %d upkeep: %w", bldg.ID, err)
			}
		}

		affected, err := buildingAffected(ctx, s, guildID, t)
		if err != nil {
			return fmt.Errorf("building %d: %w", bldg.ID, err)
		}

		if len(deficit) == 0 {
			b.Emit(eventlog.TypeBuildingUpkeepPaid, "building", bldg.ID,
				map[string]any{"building_id": bldg.ID, "resources_paid": paid}, affected)
			continue
		}

		bldg.Durability -= len(deficit)
		if err := s.UpdateBuilding(ctx, bldg); err != nil {
			return fmt.Errorf("update building %d: %w", bldg.ID, err)
		}
		b.Emit(eventlog.TypeBuildingUpkeepDeficit, "building", bldg.ID,
			map[string]any{
				"building_id": bldg.ID, "resources_paid": paid, "deficit_types": deficit,
				"durability_penalty": len(deficit), "new_durability": bldg.Durability,
			}, affected)
	}
	return nil
}

// buildingAffected is COMMAND-permission holders for a faction-controlled
// building, or the owning character alone for a personally controlled one.
func buildingAffected(ctx context.Context, s store.Store, guildID int, t types.Territory) ([]int, error) {
	if !t.Controller.IsSet() {
		return nil, nil
	}
	if t.Controller.Kind == types.OwnerCharacter {
		return []int{t.Controller.CharacterID}, nil
	}
	return permissionAffected(ctx, s, guildID, t.Controller.FactionID, types.PermissionCommand)
}

type unitUpkeepTotals struct {
	unitCount    int
	paid         types.ResourceSet
	anyShortfall bool
}

func runUnitUpkeep(ctx context.Context, s store.Store, rt *ruletables.Tables, guildID int, encircled map[int]bool, b *eventlog.Builder) error {
	units, err := s.ListUnits(ctx, guildID, store.UnitFilter{Status: types.UnitActive})
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}

	groups := map[types.Owner][]*types.Unit{}
	var owners []types.Owner
	for i := range units {
		o := units[i].Owner
		if _, ok := groups[o]; !ok {
			owners = append(owners, o)
		}
		groups[o] = append(groups[o], &units[i])
	}
	sort.Slice(owners, func(i, j int) bool {
		a, c := owners[i], owners[j]
		if a.Kind != c.Kind {
			return a.Kind < c.Kind
		}
		return a.CharacterID+a.FactionID < c.CharacterID+c.FactionID
	})

	for _, owner := range owners {
		group := groups[owner]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

		totals := unitUpkeepTotals{paid: types.ResourceSet{}}
		for _, u := range group {
			nation, err := unitNation(ctx, s, u)
			if err != nil {
				return fmt.Errorf("unit %d nation: %w", u.ID, err)
			}
			ut, err := rt.UnitType(ctx, guildID, u.Type, nation)
			if err != nil {
				return fmt.Errorf("unit type %s/%s: %w", u.Type, nation, err)
			}
			if ut.Upkeep.IsZero() {
				totals.unitCount++
				continue
			}

			affected := unitAffected(u)
			if encircled[u.ID] {
				penalty := 0
				for _, k := range types.AllResourceKinds {
					if ut.Upkeep.Get(k) > 0 {
						penalty++
					}
				}
				u.Organization -= penalty
				if err := s.UpdateUnit(ctx, u); err != nil {
					return fmt.Errorf("update unit %d: %w", u.ID, err)
				}
				b.Emit(encircledUpkeepType(owner), "unit", u.ID,
					map[string]any{"unit_id": u.ID, "organization_penalty": penalty, "new_organization": u.Organization}, affected)
				totals.unitCount++
				totals.anyShortfall = true
				continue
			}

			paid, deficit, err := payUpkeep(ctx, s, guildID, owner, ut.Upkeep)
			if err != nil {
				return fmt.Errorf("unit %d upkeep: %w", u.ID, err)
			}
			totals.paid = totals.paid.Add(paid)
			totals.unitCount++

			if len(deficit) == 0 {
				continue
			}
			totals.anyShortfall = true
			u.Organization -= len(deficit)
			if err := s.UpdateUnit(ctx, u); err != nil {
				return fmt.Errorf("update unit %d: %w", u.ID, err)
			}
			b.Emit(deficitUpkeepType(owner), "unit", u.ID,
				map[string]any{
					"unit_id": u.ID, "resources_paid": paid, "deficit_types": deficit,
					"organization_penalty": len(deficit), "new_organization": u.Organization,
				}, affected)
		}

		affected, err := ownerAffected(ctx, s, guildID, owner)
		if err != nil {
			return fmt.Errorf("owner upkeep summary: %w", err)
		}
		entityType, entityID := ownerEntity(owner)
		b.Emit(summaryUpkeepType(owner), entityType, entityID,
			map[string]any{"unit_count": totals.unitCount, "amounts_paid": totals.paid}, affected)
		if totals.anyShortfall {
			b.Emit(totalDeficitUpkeepType(owner), entityType, entityID,
				map[string]any{"unit_count": totals.unitCount}, affected)
		}
	}
	return nil
}

func ownerEntity(o types.Owner) (string, int) {
	if o.Kind == types.OwnerFaction {
		return "faction", o.FactionID
	}
	return "character", o.CharacterID
}

func ownerAffected(ctx context.Context, s store.Store, guildID int, o types.Owner) ([]int, error) {
	if o.Kind == types.OwnerCharacter {
		return []int{o.CharacterID}, nil
	}
	return permissionAffected(ctx, s, guildID, o.FactionID, types.PermissionCommand)
}

func encircledUpkeepType(o types.Owner) eventlog.Type {
	if o.Kind == types.OwnerFaction {
		return eventlog.TypeFactionUpkeepEncircled
	}
	return eventlog.TypeUpkeepEncircled
}

func deficitUpkeepType(o types.Owner) eventlog.Type {
	if o.Kind == types.OwnerFaction {
		return eventlog.TypeFactionUpkeepDeficit
	}
	return eventlog.TypeUpkeepDeficit
}

func summaryUpkeepType(o types.Owner) eventlog.Type {
	if o.Kind == types.OwnerFaction {
		return eventlog.TypeFactionUpkeepSummary
	}
	return eventlog.TypeUpkeepSummary
}

func totalDeficitUpkeepType(o types.Owner) eventlog.Type {
	if o.Kind == types.OwnerFaction {
		return eventlog.TypeFactionUpkeepTotalDeficit
	}
	return eventlog.TypeUpkeepTotalDeficit
}

// permissionAffected is a faction's leader plus every holder of the given
// permission, per spec.md §4.5/§4.8's affected_character_ids rule for
// faction-scoped events.
func permissionAffected(ctx context.Context, s store.Store, guildID, factionID int, perm types.PermissionType) ([]int, error) {
	f, err := s.GetFaction(ctx, factionID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get faction %d: %w", factionID, err)
	}
	out := map[int]bool{}
	if f.LeaderCharacterID != 0 {
		out[f.LeaderCharacterID] = true
	}
	perms, err := s.ListFactionPermissions(ctx, guildID, factionID)
	if err != nil {
		return nil, fmt.Errorf("list faction permissions: %w", err)
	}
	for _, p := range perms {
		if p.PermissionType == perm {
			out[p.CharacterID] = true
		}
	}
	ids := make([]int, 0, len(out))
	for cid := range out {
		ids = append(ids, cid)
	}
	sort.Ints(ids)
	return ids, nil
}

// payUpkeep deducts min(need, available) per resource kind from owner's
// balance and reports which resource kinds came up short.
func payUpkeep(ctx context.Context, s store.Store, guildID int, owner types.Owner, need types.ResourceSet) (types.ResourceSet, []types.ResourceKind, error) {
	balances, err := getOwnerResources(ctx, s, guildID, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("get balances: %w", err)
	}
	paid := deductAvailable(balances, need)
	if err := setOwnerResources(ctx, s, guildID, owner, subtractResources(balances, paid)); err != nil {
		return nil, nil, fmt.Errorf("set balances: %w", err)
	}

	var deficit []types.ResourceKind
	for _, k := range types.AllResourceKinds {
		if need.Get(k) > paid.Get(k) {
			deficit = append(deficit, k)
		}
	}
	return paid, deficit, nil
}

func shortfallAmounts(need, paid types.ResourceSet) types.ResourceSet {
	out := types.ResourceSet{}
	for _, k := range types.AllResourceKinds {
		if d := need.Get(k) - paid.Get(k); d > 0 {
			out[k] = d
		}
	}
	return out
}
