package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legionforge/engine/internal/store/memstore"
	"github.com/legionforge/engine/internal/types"
)

func TestEligibleSortsByPriorityThenSubmittedAtThenID(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	join := ms.SeedOrder(types.Order{GuildID: 1, OrderType: types.OrderJoinFaction,
		Status: types.StatusPending, SubmittedAt: base, OrderData: []byte("{}")})
	leave := ms.SeedOrder(types.Order{GuildID: 1, OrderType: types.OrderLeaveFaction,
		Status: types.StatusPending, SubmittedAt: base.Add(time.Second), OrderData: []byte("{}")})
	kick := ms.SeedOrder(types.Order{GuildID: 1, OrderType: types.OrderKickFromFaction,
		Status: types.StatusPending, SubmittedAt: base, OrderData: []byte("{}")})

	got, err := Eligible(ctx, ms, 1, PhaseBeginning)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// kick and leave share priority 0; kick submitted first so it sorts first.
	require.Equal(t, kick.ID, got[0].ID)
	require.Equal(t, leave.ID, got[1].ID)
	require.Equal(t, join.ID, got[2].ID)
}

func TestFailNoHandlerMarksOrderFailed(t *testing.T) {
	ms := memstore.New()
	ctx := context.Background()
	o := ms.SeedOrder(types.Order{GuildID: 1, OrderType: types.OrderJoinFaction,
		Status: types.StatusPending, OrderData: []byte("{}")})

	require.NoError(t, FailNoHandler(ctx, ms, &o, 5))
	require.Equal(t, types.StatusFailed, o.Status)

	stored, err := ms.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusFailed, stored.Status)
	require.Equal(t, 5, stored.UpdatedTurn)
}
