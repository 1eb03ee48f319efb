package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

func TestUnitCreateGetUpdateRoundTrip(t *testing.T) {
	ms := New()
	ctx := context.Background()

	u := types.Unit{GuildID: 1, UnitID: "legion-1", Status: types.UnitActive, Organization: 5}
	require.NoError(t, ms.CreateUnit(ctx, &u))
	require.NotZero(t, u.ID)

	got, err := ms.GetUnit(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "legion-1", got.UnitID)

	got.Organization = 9
	require.NoError(t, ms.UpdateUnit(ctx, got))

	reread, err := ms.GetUnit(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 9, reread.Organization)
}

func TestUpdateUnitOnUnknownIDFails(t *testing.T) {
	ms := New()
	ctx := context.Background()

	err := ms.UpdateUnit(ctx, &types.Unit{ID: 999})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListUnitsFiltersByGuildAndStatus(t *testing.T) {
	ms := New()
	ctx := context.Background()

	ms.SeedUnit(types.Unit{GuildID: 1, UnitID: "a", Status: types.UnitActive})
	ms.SeedUnit(types.Unit{GuildID: 1, UnitID: "b", Status: types.UnitDisbanded})
	ms.SeedUnit(types.Unit{GuildID: 2, UnitID: "c", Status: types.UnitActive})

	active, err := ms.ListUnits(ctx, 1, store.UnitFilter{Status: types.UnitActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "a", active[0].UnitID)
}

func TestAppendAndListEventsScopedByTurn(t *testing.T) {
	ms := New()
	ctx := context.Background()

	turn5 := []eventlog.Event{{TurnNumber: 5, EventType: eventlog.TypeUnitEngaged}}
	turn6 := []eventlog.Event{{TurnNumber: 6, EventType: eventlog.TypeCombatStarted}}

	require.NoError(t, ms.AppendEvents(ctx, 1, 5, turn5))
	require.NoError(t, ms.AppendEvents(ctx, 1, 6, turn6))

	got5, err := ms.ListEvents(ctx, 1, 5)
	require.NoError(t, err)
	require.Equal(t, turn5, got5)

	got6, err := ms.ListEvents(ctx, 1, 6)
	require.NoError(t, err)
	require.Equal(t, turn6, got6)
}

func TestGetGuildUnknownReturnsNotFound(t *testing.T) {
	ms := New()
	ctx := context.Background()

	_, err := ms.GetGuild(ctx, 42)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdvanceTurnIncrementsCurrentTurn(t *testing.T) {
	ms := New()
	ctx := context.Background()
	ms.SeedGuild(types.Guild{ID: 1, GuildID: "G1", CurrentTurn: 3})

	require.NoError(t, ms.AdvanceTurn(ctx, 1))

	g, err := ms.GetGuild(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 4, g.CurrentTurn)
}

func TestAppendEvidenceAssignsIDAndListEvidenceFiltersByEntity(t *testing.T) {
	ms := New()
	ctx := context.Background()

	e := types.Evidence{GuildID: 1, EntityType: "unit", EntityID: 42, Note: "spotted retreating", CreatedBy: "gm-1"}
	require.NoError(t, ms.AppendEvidence(ctx, &e))
	require.NotZero(t, e.ID)

	other := types.Evidence{GuildID: 1, EntityType: "unit", EntityID: 99, Note: "unrelated", CreatedBy: "gm-1"}
	require.NoError(t, ms.AppendEvidence(ctx, &other))

	got, err := ms.ListEvidence(ctx, 1, "unit", 42)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "spotted retreating", got[0].Note)
}
