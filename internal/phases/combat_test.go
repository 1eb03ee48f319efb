package phases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/legionforge/engine/internal/store/memstore"
	"github.com/legionforge/engine/internal/types"
)

func seedHostileFactions(t *testing.T, ms *memstore.Store) (north, south types.Faction) {
	t.Helper()
	north = types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH"}
	south = types.Faction{ID: 2, GuildID: 1, FactionID: "SOUTH"}
	ms.SeedFaction(north)
	ms.SeedFaction(south)
	war := ms.SeedWar(types.War{GuildID: 1, WarID: "war-1"})
	require.NoError(t, ms.AddWarParticipant(context.Background(), types.WarParticipant{GuildID: 1, WarID: war.ID, FactionID: north.ID, Side: types.SideA}))
	require.NoError(t, ms.AddWarParticipant(context.Background(), types.WarParticipant{GuildID: 1, WarID: war.ID, FactionID: south.ID, Side: types.SideB}))
	return north, south
}

func TestCombatEliminatesWeakerSideAndCapturesTerritory(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()
	ms.SeedTerritory(types.Territory{ID: 1, GuildID: 1, TerritoryID: "A", TerrainType: types.TerrainPlains})
	north, south := seedHostileFactions(t, ms)

	ms.SeedUnitType(types.UnitType{GuildID: 1, TypeID: "LEGION", Nation: "", Movement: 1, Attack: 10, Defense: 1, OrganizationMax: 10})
	ms.SeedUnitType(types.UnitType{GuildID: 1, TypeID: "MILITIA", Nation: "", Movement: 1, Attack: 1, Defense: 0, OrganizationMax: 10})

	ms.SeedUnit(types.Unit{GuildID: 1, UnitID: "strong", Type: "LEGION", CurrentTerritoryID: 1, FactionID: north.ID, Status: types.UnitActive, Organization: 10, MaxOrganization: 10})
	weak := ms.SeedUnit(types.Unit{GuildID: 1, UnitID: "weak", Type: "MILITIA", CurrentTerritoryID: 1, FactionID: south.ID, Status: types.UnitActive, Organization: 10, MaxOrganization: 10})

	events, err := RunCombat(ctx, ms, 1, 1)
	require.NoError(t, err)

	var sawStarted, sawEnded, sawCaptured bool
	for _, ev := range events {
		switch string(ev.EventType) {
		case "COMBAT_STARTED":
			sawStarted = true
		case "COMBAT_ENDED":
			sawEnded = true
			require.Equal(t, "SIDE_A", ev.EventData["victor_side"])
		case "TERRITORY_CAPTURED":
			sawCaptured = true
			require.Equal(t, north.ID, ev.EventData["captured_by_faction_id"])
		}
	}
	require.True(t, sawStarted)
	require.True(t, sawEnded)
	require.True(t, sawCaptured)

	updatedWeak, err := ms.GetUnit(ctx, weak.ID)
	require.NoError(t, err)
	require.LessOrEqual(t, updatedWeak.Organization, 0)

	terr, err := ms.GetTerritory(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, types.OwnedByFaction(north.ID), terr.Controller)
}

func TestCombatSkipsTerritoryWithoutHostileFactions(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()
	ms.SeedTerritory(types.Territory{ID: 1, GuildID: 1, TerritoryID: "A", TerrainType: types.TerrainPlains})
	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH"})
	ms.SeedUnitType(types.UnitType{GuildID: 1, TypeID: "LEGION", Nation: "", Attack: 10, Defense: 1})
	u := ms.SeedUnit(types.Unit{GuildID: 1, UnitID: "u1", Type: "LEGION", CurrentTerritoryID: 1, FactionID: 1, Status: types.UnitActive, Organization: 10, MaxOrganization: 10})

	events, err := RunCombat(ctx, ms, 1, 1)
	require.NoError(t, err)
	require.Empty(t, events)

	unchanged, err := ms.GetUnit(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 10, unchanged.Organization)
}
