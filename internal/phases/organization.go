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

// RunOrganization disbands depleted units, destroys depleted buildings,
// then recovers organization for units standing on territory controlled by
// their own faction, in that order, per spec.md §4.9.
func RunOrganization(ctx context.Context, s store.Store, guildID, turn int) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseOrganization))

	if err := disbandDepletedUnits(ctx, s, guildID, b); err != nil {
		return nil, fmt.Errorf("organization phase: %w", err)
	}
	if err := destroyDepletedBuildings(ctx, s, guildID, b); err != nil {
		return nil, fmt.Errorf("organization phase: %w", err)
	}
	if err := recoverOrganization(ctx, s, guildID, b); err != nil {
		return nil, fmt.Errorf("organization phase: %w", err)
	}

	return b.Events(), nil
}

func disbandDepletedUnits(ctx context.Context, s store.Store, guildID int, b *eventlog.Builder) error {
	units, err := s.ListUnits(ctx, guildID, store.UnitFilter{Status: types.UnitActive})
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

	for i := range units {
		u := &units[i]
		if u.Organization > 0 {
			continue
		}
		finalOrg := u.Organization
		u.Status = types.UnitDisbanded
		if err := s.UpdateUnit(ctx, u); err != nil {
			return fmt.Errorf("disband unit %d: %w", u.ID, err)
		}
		name, err := ownerDisplayName(ctx, s, u.Owner)
		if err != nil {
			return fmt.Errorf("unit %d owner name: %w", u.ID, err)
		}
		b.Emit(eventlog.TypeUnitDisbanded, "unit", u.ID,
			map[string]any{"unit_id": u.ID, "final_organization": finalOrg, "owner_name": name}, unitAffected(u))
	}
	return nil
}

func destroyDepletedBuildings(ctx context.Context, s store.Store, guildID int, b *eventlog.Builder) error {
	buildings, err := s.ListBuildings(ctx, guildID, types.BuildingActive)
	if err != nil {
		return fmt.Errorf("list buildings: %w", err)
	}
	sort.Slice(buildings, func(i, j int) bool { return buildings[i].ID < buildings[j].ID })

	territories, err := territorySet(ctx, s, guildID)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	for i := range buildings {
		bldg := &buildings[i]
		if bldg.Durability > 0 {
			continue
		}
		bldg.Status = types.BuildingDestroyed
		if err := s.UpdateBuilding(ctx, bldg); err != nil {
			return fmt.Errorf("destroy building %d: %w", bldg.ID, err)
		}
		affected, err := buildingAffected(ctx, s, guildID, territories[bldg.TerritoryID])
		if err != nil {
			return fmt.Errorf("building %d: %w", bldg.ID, err)
		}
		b.Emit(eventlog.TypeBuildingDestroyed, "building", bldg.ID,
			map[string]any{"building_id": bldg.ID, "territory_id": bldg.TerritoryID}, affected)
	}
	return nil
}

func recoverOrganization(ctx context.Context, s store.Store, guildID int, b *eventlog.Builder) error {
	units, err := s.ListUnits(ctx, guildID, store.UnitFilter{Status: types.UnitActive})
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

	territories, err := territorySet(ctx, s, guildID)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	territoryFaction, err := territoryFactionMap(ctx, s, territories)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	for i := range units {
		u := &units[i]
		if u.Organization >= u.MaxOrganization {
			continue
		}
		home, err := homeFactionID(ctx, s, u)
		if err != nil {
			return fmt.Errorf("unit %d home faction: %w", u.ID, err)
		}
		if home == 0 || territoryFaction[u.CurrentTerritoryID] != home {
			continue
		}

		u.Organization++
		if err := s.UpdateUnit(ctx, u); err != nil {
			return fmt.Errorf("update unit %d: %w", u.ID, err)
		}
		b.Emit(eventlog.TypeOrgRecovery, "unit", u.ID,
			map[string]any{"unit_id": u.ID, "new_organization": u.Organization}, unitAffected(u))
	}
	return nil
}

func ownerDisplayName(ctx context.Context, s store.Store, o types.Owner) (string, error) {
	switch o.Kind {
	case types.OwnerCharacter:
		char, err := s.GetCharacter(ctx, o.CharacterID)
		if err != nil {
			if isNotFound(err) {
				return "", nil
			}
			return "", err
		}
		return char.Identifier, nil
	case types.OwnerFaction:
		f, err := s.GetFaction(ctx, o.FactionID)
		if err != nil {
			if isNotFound(err) {
				return "", nil
			}
			return "", err
		}
		return f.FactionID, nil
	default:
		return "", nil
	}
}
