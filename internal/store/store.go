package store

import (
	"context"
	"time"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/types"
)

// Store is the typed repository every phase handler and the turn engine
// read and write through. All methods are guild-scoped: no method here can
// express a cross-guild query. Suspension points are only at these method
// boundaries (no cooperative yield points inside rule evaluation), per
// spec.md §5.
type Store interface {
	// WithTx runs fn inside a single database transaction. A single
	// resolve_turn call wraps its entire phase pipeline in one WithTx so a
	// mid-phase failure rolls back every mutation made so far and leaves
	// Guild.CurrentTurn unadvanced.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	GuildStore
	CharacterStore
	FactionStore
	TerritoryStore
	UnitStore
	BuildingStore
	ResourceStore
	OrderStore
	EventStore
	TaskStore
	HerbalismStore
	EvidenceStore
}

// GuildStore fetches and advances the per-guild turn counter.
type GuildStore interface {
	GetGuild(ctx context.Context, guildID int) (*types.Guild, error)
	AdvanceTurn(ctx context.Context, guildID int) error
}

// CharacterStore is characters, faction membership and permissions.
type CharacterStore interface {
	GetCharacter(ctx context.Context, id int) (*types.Character, error)
	UpdateCharacter(ctx context.Context, c *types.Character) error
	ListCharacters(ctx context.Context, guildID int) ([]types.Character, error)

	AddFactionMember(ctx context.Context, m types.FactionMember) error
	RemoveFactionMember(ctx context.Context, guildID, factionID, characterID int) error
	ListFactionMembers(ctx context.Context, guildID, factionID int) ([]types.FactionMember, error)
	ListMembershipsForCharacter(ctx context.Context, guildID, characterID int) ([]types.FactionMember, error)

	GrantPermission(ctx context.Context, p types.FactionPermission) error
	ListPermissions(ctx context.Context, guildID, factionID, characterID int) ([]types.FactionPermission, error)
	ListFactionPermissions(ctx context.Context, guildID, factionID int) ([]types.FactionPermission, error)
}

// FactionStore is factions, alliances and wars.
type FactionStore interface {
	GetFaction(ctx context.Context, id int) (*types.Faction, error)
	GetFactionByFactionID(ctx context.Context, guildID int, factionID string) (*types.Faction, error)
	UpdateFaction(ctx context.Context, f *types.Faction) error
	ListFactions(ctx context.Context, guildID int) ([]types.Faction, error)

	GetAlliance(ctx context.Context, guildID, a, b int) (*types.Alliance, error)
	UpsertAlliance(ctx context.Context, al *types.Alliance) error
	DeleteAlliance(ctx context.Context, guildID, a, b int) error
	ListActiveAlliancesForFaction(ctx context.Context, guildID, factionID int) ([]types.Alliance, error)

	CreateWar(ctx context.Context, w *types.War) error
	GetWar(ctx context.Context, guildID int, warID string) (*types.War, error)
	AddWarParticipant(ctx context.Context, wp types.WarParticipant) error
	ListWarParticipants(ctx context.Context, guildID, warID int) ([]types.WarParticipant, error)
	ListActiveWarsForFaction(ctx context.Context, guildID, factionID int) ([]types.War, error)
}

// TerritoryStore is territories and their adjacency graph.
type TerritoryStore interface {
	GetTerritory(ctx context.Context, id int) (*types.Territory, error)
	UpdateTerritory(ctx context.Context, t *types.Territory) error
	ListTerritories(ctx context.Context, guildID int) ([]types.Territory, error)
	ListAdjacency(ctx context.Context, guildID int) ([]types.TerritoryAdjacency, error)
}

// UnitStore is units, unit types, and naval position sequences.
type UnitStore interface {
	GetUnitType(ctx context.Context, guildID int, typeID, nation string) (*types.UnitType, error)

	GetUnit(ctx context.Context, id int) (*types.Unit, error)
	CreateUnit(ctx context.Context, u *types.Unit) error
	UpdateUnit(ctx context.Context, u *types.Unit) error
	ListUnits(ctx context.Context, guildID int, filter UnitFilter) ([]types.Unit, error)

	GetNavalPositions(ctx context.Context, unitID int) ([]types.NavalUnitPosition, error)
	SetNavalPositions(ctx context.Context, guildID, unitID int, territoryIDs []int) error
}

// UnitFilter narrows ListUnits. A zero field means "no filter on this axis."
type UnitFilter struct {
	Status             types.UnitStatus
	TerritoryID        int
	OwnerCharacterID   int
	OwnerFactionID     int
	FactionID          int
}

// BuildingStore is buildings and building types.
type BuildingStore interface {
	GetBuildingType(ctx context.Context, guildID int, typeID string) (*types.BuildingType, error)

	GetBuilding(ctx context.Context, id int) (*types.Building, error)
	CreateBuilding(ctx context.Context, b *types.Building) error
	UpdateBuilding(ctx context.Context, b *types.Building) error
	ListBuildings(ctx context.Context, guildID int, status types.BuildingStatus) ([]types.Building, error)
}

// ResourceStore is the character and faction resource ledgers.
type ResourceStore interface {
	GetPlayerResources(ctx context.Context, guildID, characterID int) (*types.PlayerResources, error)
	SetPlayerResources(ctx context.Context, r *types.PlayerResources) error

	GetFactionResources(ctx context.Context, guildID, factionID int) (*types.FactionResources, error)
	SetFactionResources(ctx context.Context, r *types.FactionResources) error
}

// OrderStore is the heterogeneous order queue.
type OrderStore interface {
	GetOrder(ctx context.Context, id int) (*types.Order, error)
	UpdateOrder(ctx context.Context, o *types.Order) error
	ListOrders(ctx context.Context, guildID int, filter OrderFilter) ([]types.Order, error)
}

// OrderFilter narrows ListOrders. Types and Statuses are ORed within the
// field and ANDed across fields; empty slices mean "no filter."
type OrderFilter struct {
	Types    []types.OrderType
	Statuses []types.OrderStatus
}

// EventStore is the append-only per-turn event log.
type EventStore interface {
	AppendEvents(ctx context.Context, guildID, turn int, events []eventlog.Event) error
	ListEvents(ctx context.Context, guildID, turn int) ([]eventlog.Event, error)
}

// TaskStore is the Hawky scheduled-task queue. ClaimNextTask is the only
// operation in this design requiring a "select ... skip locked then
// delete" pattern, since more than one worker may poll concurrently.
type TaskStore interface {
	ScheduleTask(ctx context.Context, t *types.ScheduledTask) error
	ClaimNextTask(ctx context.Context, now time.Time) (*types.ScheduledTask, error)
}

// HerbalismStore is the immutable-per-turn recipe tables.
type HerbalismStore interface {
	GetIngredient(ctx context.Context, itemNumber int) (*types.Ingredient, error)
	GetProduct(ctx context.Context, itemNumber int, productType types.ProductType) (*types.Product, error)
	ListSubsetRecipes(ctx context.Context, productType types.ProductType) ([]types.SubsetRecipe, error)
	ListConstraintRecipes(ctx context.Context, productType types.ProductType) ([]types.ConstraintRecipe, error)
	GetFailedBlend(ctx context.Context, productType types.ProductType) (*types.FailedBlend, error)
}

// EvidenceStore is the append-only GM annotation log, independent of the
// turn event log: a GM attaches a note to an arbitrary entity id and later
// lists every note recorded against it.
type EvidenceStore interface {
	AppendEvidence(ctx context.Context, e *types.Evidence) error
	ListEvidence(ctx context.Context, guildID int, entityType string, entityID int) ([]types.Evidence, error)
}
