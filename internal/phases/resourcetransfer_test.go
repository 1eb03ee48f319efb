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

func seedTransferOrder(t *testing.T, ms *memstore.Store, status types.OrderStatus, payload resourceTransferPayload) types.Order {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return ms.SeedOrder(types.Order{
		GuildID: 1, OrderType: types.OrderResourceTransfer, Status: status,
		CharacterID: 10, SubmittedAt: time.Now(), OrderData: data,
	})
}

func TestResourceTransferFullOneTime(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice"})
	ms.SeedCharacter(types.Character{ID: 20, GuildID: 1, Identifier: "bob"})
	require.NoError(t, ms.SetPlayerResources(ctx, &types.PlayerResources{
		CharacterID: 10, GuildID: 1, Balances: types.ResourceSet{types.Ore: 10},
	}))

	o := seedTransferOrder(t, ms, types.StatusPending, resourceTransferPayload{
		From:      transferPartyPayload{CharacterID: 10},
		To:        transferPartyPayload{CharacterID: 20},
		Requested: types.ResourceSet{types.Ore: 6},
	})

	events, err := RunResourceTransfer(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "RESOURCE_TRANSFER_SUCCESS", string(events[0].EventType))

	stored, err := ms.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusSuccess, stored.Status)

	from, err := ms.GetPlayerResources(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 4, from.Balances.Get(types.Ore))

	to, err := ms.GetPlayerResources(ctx, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 6, to.Balances.Get(types.Ore))
}

func TestResourceTransferPartialInsufficientFunds(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice"})
	ms.SeedCharacter(types.Character{ID: 20, GuildID: 1, Identifier: "bob"})
	require.NoError(t, ms.SetPlayerResources(ctx, &types.PlayerResources{
		CharacterID: 10, GuildID: 1, Balances: types.ResourceSet{types.Ore: 2},
	}))

	seedTransferOrder(t, ms, types.StatusPending, resourceTransferPayload{
		From:      transferPartyPayload{CharacterID: 10},
		To:        transferPartyPayload{CharacterID: 20},
		Requested: types.ResourceSet{types.Ore: 6},
	})

	events, err := RunResourceTransfer(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "RESOURCE_TRANSFER_PARTIAL", string(events[0].EventType))

	to, err := ms.GetPlayerResources(ctx, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 2, to.Balances.Get(types.Ore))
}

func TestResourceTransferRecurringCompletesOnFinalTick(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice"})
	ms.SeedCharacter(types.Character{ID: 20, GuildID: 1, Identifier: "bob"})
	require.NoError(t, ms.SetPlayerResources(ctx, &types.PlayerResources{
		CharacterID: 10, GuildID: 1, Balances: types.ResourceSet{types.Ore: 100},
	}))

	o := seedTransferOrder(t, ms, types.StatusOngoing, resourceTransferPayload{
		From: transferPartyPayload{CharacterID: 10}, To: transferPartyPayload{CharacterID: 20},
		Requested: types.ResourceSet{types.Ore: 5}, Recurring: true, TurnsRemaining: 1,
	})

	events, err := RunResourceTransfer(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	var payload map[string]any
	payload = events[0].EventData
	require.Equal(t, false, payload["is_ongoing"])
	require.Equal(t, true, payload["term_completed"])

	stored, err := ms.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusSuccess, stored.Status)
}

func TestResourceTransferCancelStopsOngoingOrderThisTurn(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()

	ms.SeedCharacter(types.Character{ID: 10, GuildID: 1, Identifier: "alice"})
	ms.SeedCharacter(types.Character{ID: 20, GuildID: 1, Identifier: "bob"})
	require.NoError(t, ms.SetPlayerResources(ctx, &types.PlayerResources{
		CharacterID: 10, GuildID: 1, Balances: types.ResourceSet{types.Ore: 100},
	}))
	require.NoError(t, ms.SetPlayerResources(ctx, &types.PlayerResources{
		CharacterID: 20, GuildID: 1, Balances: types.ResourceSet{},
	}))

	ongoing := seedTransferOrder(t, ms, types.StatusOngoing, resourceTransferPayload{
		From: transferPartyPayload{CharacterID: 10}, To: transferPartyPayload{CharacterID: 20},
		Requested: types.ResourceSet{types.Ore: 5}, Recurring: true,
	})

	cancelData, err := json.Marshal(cancelTransferPayload{TransferOrderID: ongoing.ID})
	require.NoError(t, err)
	ms.SeedOrder(types.Order{
		GuildID: 1, OrderType: types.OrderCancelTransfer, Status: types.StatusPending,
		CharacterID: 10, SubmittedAt: time.Now(), OrderData: cancelData,
	})

	events, err := RunResourceTransfer(ctx, ms, 1, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "TRANSFER_CANCELLED", string(events[0].EventType))

	stored, err := ms.GetOrder(ctx, ongoing.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusCancelled, stored.Status)

	to, err := ms.GetPlayerResources(ctx, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 0, to.Balances.Get(types.Ore))
}
