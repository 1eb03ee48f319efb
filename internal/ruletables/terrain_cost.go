package ruletables

import "github.com/legionforge/engine/internal/types"

// baseTerrainCost is the static land-movement cost of entering a territory
// of the given terrain, in tick-budget units. Water costs nothing here
// because a land unit only ever "enters" water by boarding a naval
// transport, a separate code path in the movement phase; a naval unit
// ignores this table entirely.
var baseTerrainCost = map[types.TerrainType]int{
	types.TerrainPlains: 1,
	types.TerrainForest: 2,
	types.TerrainHills:  2,
	types.TerrainWater:  0,
}

// TerrainCost returns the number of tick-budget units a stack spends
// entering a territory of terrain t. The movement phase does not call it:
// a stack takes one step on every tick it is eligible for, whatever the
// terrain it enters, so terrain cost neither defers nor blocks a step.
func TerrainCost(t types.TerrainType) int {
	if cost, ok := baseTerrainCost[t]; ok {
		return cost
	}
	return 1
}
