package phases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/legionforge/engine/internal/store/memstore"
	"github.com/legionforge/engine/internal/types"
)

func TestOrganizationDisbandsDepletedUnitAndDestroysDepletedBuilding(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice"})
	u := ms.SeedUnit(types.Unit{
		GuildID: 1, UnitID: "legion-1", Owner: types.OwnedByCharacter(10),
		Organization: 0, MaxOrganization: 10, Status: types.UnitActive,
	})
	bldg := ms.SeedBuilding(types.Building{GuildID: 1, BuildingID: "fort-1", Durability: 0, Status: types.BuildingActive})

	events, err := RunOrganization(ctx, ms, 1, 5)
	require.NoError(t, err)

	var sawDisband, sawDestroy bool
	for _, e := range events {
		switch string(e.EventType) {
		case "UNIT_DISBANDED":
			sawDisband = true
			require.Equal(t, "alice", e.EventData["owner_name"])
		case "BUILDING_DESTROYED":
			sawDestroy = true
		}
	}
	require.True(t, sawDisband)
	require.True(t, sawDestroy)

	updatedUnit, err := ms.GetUnit(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, types.UnitDisbanded, updatedUnit.Status)

	updatedBldg, err := ms.GetBuilding(ctx, bldg.ID)
	require.NoError(t, err)
	require.Equal(t, types.BuildingDestroyed, updatedBldg.Status)
}

func TestOrganizationRecoversOnFriendlyTerritory(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH"})
	ms.SeedTerritory(types.Territory{ID: 100, GuildID: 1, TerritoryID: "T1", Controller: types.OwnedByFaction(1)})
	u := ms.SeedUnit(types.Unit{
		GuildID: 1, UnitID: "legion-1", Owner: types.OwnedByCharacter(10), FactionID: 1,
		CurrentTerritoryID: 100, Organization: 5, MaxOrganization: 10, Status: types.UnitActive,
	})

	events, err := RunOrganization(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "ORG_RECOVERY", string(events[0].EventType))

	updated, err := ms.GetUnit(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 6, updated.Organization)
}
