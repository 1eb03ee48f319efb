// Package orders is the heterogeneous order queue's static dispatch table:
// for each OrderType, the phase it executes in and its priority within that
// phase. Grounded directly on original_source/iroh/order_types.py's
// ORDER_PHASE_MAP/ORDER_PRIORITY_MAP, extended to the full order-type
// catalog spec.md §4.1 names.
package orders

import "github.com/legionforge/engine/internal/types"

// Phase names one of the nine fixed turn phases, in mandatory order.
type Phase string

const (
	PhaseBeginning          Phase = "BEGINNING"
	PhaseMovement           Phase = "MOVEMENT"
	PhaseCombat             Phase = "COMBAT"
	PhaseResourceCollection Phase = "RESOURCE_COLLECTION"
	PhaseResourceTransfer   Phase = "RESOURCE_TRANSFER"
	PhaseEncirclement       Phase = "ENCIRCLEMENT"
	PhaseUpkeep             Phase = "UPKEEP"
	PhaseOrganization       Phase = "ORGANIZATION"
	PhaseConstruction       Phase = "CONSTRUCTION"
)

// Phases is the mandatory execution order of the nine phases.
var Phases = []Phase{
	PhaseBeginning,
	PhaseMovement,
	PhaseCombat,
	PhaseResourceCollection,
	PhaseResourceTransfer,
	PhaseEncirclement,
	PhaseUpkeep,
	PhaseOrganization,
	PhaseConstruction,
}

type dispatchEntry struct {
	phase    Phase
	priority int
}

// dispatch is the static OrderType -> (Phase, Priority) table. Lower
// priority runs first within a phase; within a priority tier, orders run
// ascending (submitted_at, id) — see Eligible in queue.go.
var dispatch = map[types.OrderType]dispatchEntry{
	types.OrderLeaveFaction:        {PhaseBeginning, 0},
	types.OrderKickFromFaction:     {PhaseBeginning, 0},
	types.OrderJoinFaction:         {PhaseBeginning, 1},
	types.OrderAssignCommander:     {PhaseBeginning, 2},
	types.OrderAssignVictoryPoints: {PhaseBeginning, 3},
	types.OrderMakeAlliance:        {PhaseBeginning, 3},
	types.OrderDissolveAlliance:    {PhaseBeginning, 3},
	types.OrderDeclareWar:          {PhaseBeginning, 3},

	types.OrderUnit: {PhaseMovement, 0},

	types.OrderCancelTransfer:   {PhaseResourceTransfer, 0},
	types.OrderResourceTransfer: {PhaseResourceTransfer, 1},

	types.OrderMobilization: {PhaseConstruction, 0},
	types.OrderConstruction: {PhaseConstruction, 0},
}

// PhaseFor returns the phase an order type executes in, and whether the
// type is known. An unknown type's order must be marked FAILED with
// {"error": "No handler"} by the phase that encounters it.
func PhaseFor(t types.OrderType) (Phase, bool) {
	e, ok := dispatch[t]
	return e.phase, ok
}

// PriorityFor returns the priority an order type runs at within its phase.
// Lower values run first. Returns 0 and false for an unknown type.
func PriorityFor(t types.OrderType) (int, bool) {
	e, ok := dispatch[t]
	return e.priority, ok
}

// ForPhase returns every OrderType dispatched to phase p, for building an
// OrderFilter.
func ForPhase(p Phase) []types.OrderType {
	var out []types.OrderType
	for t, e := range dispatch {
		if e.phase == p {
			out = append(out, t)
		}
	}
	return out
}
