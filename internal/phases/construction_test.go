package phases

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/store/memstore"
	"github.com/legionforge/engine/internal/types"
)

func seedMobilizationOrder(t *testing.T, ms *memstore.Store, characterID int, payload mobilizationPayload) types.Order {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return ms.SeedOrder(types.Order{
		GuildID: 1, OrderType: types.OrderMobilization, Status: types.StatusPending,
		CharacterID: characterID, SubmittedAt: time.Now(), OrderData: data,
	})
}

func seedConstructionOrder(t *testing.T, ms *memstore.Store, characterID int, payload constructionPayload) types.Order {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return ms.SeedOrder(types.Order{
		GuildID: 1, OrderType: types.OrderConstruction, Status: types.StatusPending,
		CharacterID: characterID, SubmittedAt: time.Now(), OrderData: data,
	})
}

func TestMobilizationSucceedsAndDeductsFactionCost(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH", Nation: "NORTH", LeaderCharacterID: 10})
	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice", RepresentedFactionID: 1})
	ms.SeedTerritory(types.Territory{ID: 100, GuildID: 1, TerritoryID: "T1"})
	ms.SeedUnitType(types.UnitType{
		GuildID: 1, TypeID: "legion", Nation: "NORTH", OrganizationMax: 10,
		Costs: types.ResourceSet{types.Ore: 5},
	})
	require.NoError(t, ms.SetFactionResources(ctx, &types.FactionResources{
		FactionID: 1, GuildID: 1, Balances: types.ResourceSet{types.Ore: 8},
	}))

	o := seedMobilizationOrder(t, ms, 10, mobilizationPayload{
		UnitTypeID: "legion", TerritoryID: 100, Owner: transferPartyPayload{FactionID: 1},
	})

	events, err := RunConstruction(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "UNIT_MOBILIZED", string(events[0].EventType))

	stored, err := ms.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusSuccess, stored.Status)

	fr, err := ms.GetFactionResources(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 3, fr.Balances.Get(types.Ore))

	units, err := ms.ListUnits(ctx, 1, store.UnitFilter{})
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, types.UnitActive, units[0].Status)
	require.Equal(t, 10, units[0].Organization)
}

func TestMobilizationFailsWithoutPermission(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH", Nation: "NORTH", LeaderCharacterID: 10})
	ms.SeedCharacter(types.Character{ID: 20, GuildID: 1, Identifier: "bob"})
	ms.SeedTerritory(types.Territory{ID: 100, GuildID: 1, TerritoryID: "T1"})
	ms.SeedUnitType(types.UnitType{GuildID: 1, TypeID: "legion", Nation: "NORTH", Costs: types.ResourceSet{types.Ore: 5}})
	require.NoError(t, ms.SetFactionResources(ctx, &types.FactionResources{
		FactionID: 1, GuildID: 1, Balances: types.ResourceSet{types.Ore: 8},
	}))

	seedMobilizationOrder(t, ms, 20, mobilizationPayload{
		UnitTypeID: "legion", TerritoryID: 100, Owner: transferPartyPayload{FactionID: 1},
	})

	events, err := RunConstruction(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "MOBILIZATION_FAILED", string(events[0].EventType))

	units, err := ms.ListUnits(ctx, 1, store.UnitFilter{})
	require.NoError(t, err)
	require.Len(t, units, 0)
}

func TestConstructionFailsWithInsufficientResources(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice", RepresentedFactionID: 1})
	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH", Nation: "NORTH", LeaderCharacterID: 10})
	ms.SeedTerritory(types.Territory{ID: 100, GuildID: 1, TerritoryID: "T1"})
	ms.SeedBuildingType(types.BuildingType{GuildID: 1, TypeID: "fort", Costs: types.ResourceSet{types.Lumber: 10}})
	require.NoError(t, ms.SetPlayerResources(ctx, &types.PlayerResources{
		CharacterID: 10, GuildID: 1, Balances: types.ResourceSet{types.Lumber: 3},
	}))

	o := seedConstructionOrder(t, ms, 10, constructionPayload{
		BuildingTypeID: "fort", TerritoryID: 100, Owner: transferPartyPayload{CharacterID: 10},
	})

	events, err := RunConstruction(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "CONSTRUCTION_FAILED", string(events[0].EventType))

	stored, err := ms.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusFailed, stored.Status)

	pr, err := ms.GetPlayerResources(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, pr.Balances.Get(types.Lumber))
}

func TestConstructionSucceedsForPersonalOwner(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice"})
	ms.SeedTerritory(types.Territory{ID: 100, GuildID: 1, TerritoryID: "T1"})
	ms.SeedBuildingType(types.BuildingType{GuildID: 1, TypeID: "fort", Costs: types.ResourceSet{types.Lumber: 10}, Upkeep: types.ResourceSet{types.Lumber: 1}})
	require.NoError(t, ms.SetPlayerResources(ctx, &types.PlayerResources{
		CharacterID: 10, GuildID: 1, Balances: types.ResourceSet{types.Lumber: 12},
	}))

	seedConstructionOrder(t, ms, 10, constructionPayload{
		BuildingTypeID: "fort", TerritoryID: 100, Owner: transferPartyPayload{CharacterID: 10},
	})

	events, err := RunConstruction(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "BUILDING_CONSTRUCTED", string(events[0].EventType))

	pr, err := ms.GetPlayerResources(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, pr.Balances.Get(types.Lumber))

	buildings, err := ms.ListBuildings(ctx, 1, types.BuildingActive)
	require.NoError(t, err)
	require.Len(t, buildings, 1)
	require.Equal(t, defaultBuildingDurability, buildings[0].Durability)
}
