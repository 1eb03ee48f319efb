package phases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/legionforge/engine/internal/store/memstore"
	"github.com/legionforge/engine/internal/types"
)

func TestUpkeepFactionSpendingPartial(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH", LeaderCharacterID: 10, Spending: types.ResourceSet{types.Ore: 5}})
	require.NoError(t, ms.SetFactionResources(ctx, &types.FactionResources{FactionID: 1, GuildID: 1, Balances: types.ResourceSet{types.Ore: 2}}))

	events, err := RunUpkeep(ctx, ms, 1, 5, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "FACTION_SPENDING_PARTIAL", string(events[0].EventType))
	require.Equal(t, []int{10}, events[0].AffectedCharacterIDs())

	fr, err := ms.GetFactionResources(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 0, fr.Balances.Get(types.Ore))
}

func TestUpkeepBuildingDeficitReducesDurability(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH", LeaderCharacterID: 10})
	ms.SeedTerritory(types.Territory{ID: 100, GuildID: 1, TerritoryID: "T1", Controller: types.OwnedByFaction(1)})
	require.NoError(t, ms.SetFactionResources(ctx, &types.FactionResources{FactionID: 1, GuildID: 1, Balances: types.ResourceSet{}}))
	bldg := ms.SeedBuilding(types.Building{
		GuildID: 1, BuildingID: "fort-1", TerritoryID: 100, Durability: 5, Status: types.BuildingActive,
		Upkeep: types.ResourceSet{types.Ore: 2, types.Lumber: 1},
	})

	events, err := RunUpkeep(ctx, ms, 1, 5, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "BUILDING_UPKEEP_DEFICIT", string(events[0].EventType))
	require.Equal(t, 2, events[0].EventData["durability_penalty"])

	stored, err := ms.GetBuilding(ctx, bldg.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.Durability)
}

func TestUpkeepUnitEncircledSkipsPaymentAndPenalizesOrganization(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH", LeaderCharacterID: 10})
	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice"})
	ms.SeedUnitType(types.UnitType{GuildID: 1, TypeID: "legion", Nation: "NORTH", OrganizationMax: 10, Upkeep: types.ResourceSet{types.Ore: 1, types.Rations: 1}})
	u := ms.SeedUnit(types.Unit{
		GuildID: 1, UnitID: "legion-1", Type: "legion", Owner: types.OwnedByCharacter(10),
		FactionID: 1, Organization: 10, MaxOrganization: 10, Status: types.UnitActive,
	})
	require.NoError(t, ms.SetPlayerResources(ctx, &types.PlayerResources{CharacterID: 10, GuildID: 1, Balances: types.ResourceSet{types.Ore: 100, types.Rations: 100}}))

	events, err := RunUpkeep(ctx, ms, 1, 5, map[int]bool{u.ID: true})
	require.NoError(t, err)

	var sawEncircled, sawSummary, sawTotalDeficit bool
	for _, e := range events {
		switch string(e.EventType) {
		case "UPKEEP_ENCIRCLED":
			sawEncircled = true
		case "UPKEEP_SUMMARY":
			sawSummary = true
		case "UPKEEP_TOTAL_DEFICIT":
			sawTotalDeficit = true
		}
	}
	require.True(t, sawEncircled)
	require.True(t, sawSummary)
	require.True(t, sawTotalDeficit)

	updated, err := ms.GetUnit(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 8, updated.Organization)

	pr, err := ms.GetPlayerResources(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 100, pr.Balances.Get(types.Ore))
}
