// Package memstore is an in-process, map-backed Store used by phase and
// engine tests. It implements the exact store.Store contract sqlstore
// implements, so a test written against memstore exercises the same
// handler code a production Dolt-backed call would, grounded on the
// teacher's internal/storage/memory pattern (a minimal, synchronous,
// mutex-guarded double rather than a second full SQL engine).
package memstore

import (
	"fmt"
	"sync"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// Store is the in-memory store.Store implementation.
type Store struct {
	mu sync.Mutex

	guilds       map[int]*types.Guild
	characters   map[int]*types.Character
	members      []types.FactionMember
	permissions  []types.FactionPermission
	factions     map[int]*types.Faction
	alliances    map[string]*types.Alliance
	wars         map[int]*types.War
	warParticipants []types.WarParticipant
	territories  map[int]*types.Territory
	adjacency    map[int][]types.TerritoryAdjacency
	unitTypes    map[string]*types.UnitType
	units        map[int]*types.Unit
	navalPos     map[int][]types.NavalUnitPosition
	buildingTypes map[string]*types.BuildingType
	buildings    map[int]*types.Building
	playerRes    map[int]*types.PlayerResources
	factionRes   map[int]*types.FactionResources
	orders       map[int]*types.Order
	events       map[int][]eventlog.Event // keyed by turn
	tasks        []*types.ScheduledTask
	ingredients  map[int]*types.Ingredient
	products     map[string]*types.Product
	subsetRecipes []types.SubsetRecipe
	constraintRecipes []types.ConstraintRecipe
	failedBlends map[types.ProductType]*types.FailedBlend
	evidence     []types.Evidence

	nextID int
}

// New returns an empty Store ready for Seed* helpers or direct field
// population by test fixtures.
func New() *Store {
	return &Store{
		guilds:        map[int]*types.Guild{},
		characters:    map[int]*types.Character{},
		factions:      map[int]*types.Faction{},
		alliances:     map[string]*types.Alliance{},
		wars:          map[int]*types.War{},
		territories:   map[int]*types.Territory{},
		adjacency:     map[int][]types.TerritoryAdjacency{},
		unitTypes:     map[string]*types.UnitType{},
		units:         map[int]*types.Unit{},
		navalPos:      map[int][]types.NavalUnitPosition{},
		buildingTypes: map[string]*types.BuildingType{},
		buildings:     map[int]*types.Building{},
		playerRes:     map[int]*types.PlayerResources{},
		factionRes:    map[int]*types.FactionResources{},
		orders:        map[int]*types.Order{},
		events:        map[int][]eventlog.Event{},
		ingredients:   map[int]*types.Ingredient{},
		products:      map[string]*types.Product{},
		failedBlends:  map[types.ProductType]*types.FailedBlend{},
	}
}

func allianceKey(guildID, a, b int) string {
	lo, hi := types.CanonicalPair(a, b)
	return fmt.Sprintf("%d:%d:%d", guildID, lo, hi)
}

func unitTypeKey(guildID int, typeID, nation string) string {
	return fmt.Sprintf("%d:%s:%s", guildID, typeID, nation)
}

func buildingTypeKey(guildID int, typeID string) string {
	return fmt.Sprintf("%d:%s", guildID, typeID)
}

func productKey(itemNumber int, productType types.ProductType) string {
	return fmt.Sprintf("%d:%s", itemNumber, productType)
}

var _ store.Store = (*Store)(nil)
