package eventlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderEmitInjectsAffectedCharacterIDs(t *testing.T) {
	b := NewBuilder(1, 5, "movement")

	ev := b.Emit(TypeUnitEngaged, "unit", 42, nil, nil)

	require.Equal(t, 1, ev.GuildID)
	require.Equal(t, 5, ev.TurnNumber)
	require.Equal(t, "movement", ev.Phase)
	require.Equal(t, []int{}, ev.EventData["affected_character_ids"])

	require.Equal(t, 1, b.Len())
	require.Equal(t, []Event{ev}, b.Events())
}

func TestBuilderEmitPreservesGivenAffectedCharacterIDs(t *testing.T) {
	b := NewBuilder(1, 5, "movement")

	ev := b.Emit(TypeUnitEngaged, "unit", 42, map[string]any{"foo": "bar"}, []int{7, 8})

	require.Equal(t, []int{7, 8}, ev.EventData["affected_character_ids"])
	require.Equal(t, "bar", ev.EventData["foo"])
}

func TestDedupObservationsKeepsHighestTickPerRecipientUnitPair(t *testing.T) {
	raw := []Event{
		{EventType: TypeUnitObserved, EventData: map[string]any{"recipient_character_id": 1, "observed_unit_id": 10, "tick": 1}},
		{EventType: TypeUnitObserved, EventData: map[string]any{"recipient_character_id": 1, "observed_unit_id": 10, "tick": 3}},
		{EventType: TypeUnitObserved, EventData: map[string]any{"recipient_character_id": 1, "observed_unit_id": 10, "tick": 2}},
		{EventType: TypeUnitObserved, EventData: map[string]any{"recipient_character_id": 2, "observed_unit_id": 10, "tick": 1}},
	}

	out := DedupObservations(raw)
	require.Len(t, out, 2)

	var forRecipient1 Event
	for _, ev := range out {
		if ev.EventData["recipient_character_id"] == 1 {
			forRecipient1 = ev
		}
	}
	require.Equal(t, 3, forRecipient1.EventData["tick"])
}

func TestDedupObservationsDropsNonObservationEvents(t *testing.T) {
	raw := []Event{
		{EventType: TypeUnitEngaged, EventData: map[string]any{}},
		{EventType: TypeUnitObserved, EventData: map[string]any{"recipient_character_id": 1, "observed_unit_id": 10, "tick": 1}},
	}

	out := DedupObservations(raw)
	require.Len(t, out, 1)
	require.Equal(t, TypeUnitObserved, out[0].EventType)
}
