package phases

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legionforge/engine/internal/store/memstore"
	"github.com/legionforge/engine/internal/types"
)

func TestResourceCollectionCharacterAndTerritoryProduction(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH"})
	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice", Production: types.ResourceSet{types.Ore: 5}})
	ms.SeedTerritory(types.Territory{ID: 100, GuildID: 1, TerritoryID: "T1", Production: types.ResourceSet{types.Lumber: 3}, Controller: types.OwnedByCharacter(10)})
	ms.SeedTerritory(types.Territory{ID: 101, GuildID: 1, TerritoryID: "T2", Production: types.ResourceSet{types.Coal: 7}, Controller: types.OwnedByFaction(1)})
	ms.SeedTerritory(types.Territory{ID: 102, GuildID: 1, TerritoryID: "T3", Production: types.ResourceSet{types.Platinum: 99}, Controller: types.OwnedByFaction(1), SacredLand: true})

	events, err := RunResourceCollection(ctx, ms, 1, 3)
	require.NoError(t, err)

	var sawChar, sawFaction bool
	for _, e := range events {
		switch string(e.EventType) {
		case "CHARACTER_PRODUCTION":
			sawChar = true
			require.Equal(t, []int{10}, e.AffectedCharacterIDs())
		case "FACTION_TERRITORY_PRODUCTION":
			sawFaction = true
		}
	}
	require.True(t, sawChar)
	require.True(t, sawFaction)

	pr, err := ms.GetPlayerResources(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 5, pr.Balances.Get(types.Ore))
	require.Equal(t, 3, pr.Balances.Get(types.Lumber))

	fr, err := ms.GetFactionResources(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 7, fr.Balances.Get(types.Coal))
	require.Equal(t, 0, fr.Balances.Get(types.Platinum))
}

func TestResourceCollectionFirstWarBonus(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedFaction(types.Faction{ID: 1, GuildID: 1, FactionID: "NORTH"})
	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice", Production: types.ResourceSet{types.Ore: 5}})
	require.NoError(t, ms.AddFactionMember(ctx, types.FactionMember{GuildID: 1, FactionID: 1, CharacterID: 10, JoinedTurn: 1}))

	resultData, err := json.Marshal(map[string]any{"war_id": "w1", "first_war_bonus": true})
	require.NoError(t, err)
	ms.SeedOrder(types.Order{
		GuildID: 1, OrderType: types.OrderDeclareWar, Status: types.StatusSuccess,
		SubmittingFactionID: 1, CharacterID: 10, SubmittedAt: time.Now(),
		UpdatedTurn: 3, ResultData: resultData,
	})

	events, err := RunResourceCollection(ctx, ms, 1, 3)
	require.NoError(t, err)

	var found bool
	for _, e := range events {
		if string(e.EventType) != "CHARACTER_PRODUCTION" {
			continue
		}
		if _, ok := e.EventData["war_bonus"]; ok {
			found = true
		}
	}
	require.True(t, found)

	pr, err := ms.GetPlayerResources(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 10, pr.Balances.Get(types.Ore))
}
