package phases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/idgen"
	"github.com/legionforge/engine/internal/orders"
	"github.com/legionforge/engine/internal/ruletables"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// defaultBuildingDurability is the starting durability of a newly
// constructed building. Neither spec.md nor BuildingType carries one, so a
// fresh building starts at a fixed value rather than zero (which would make
// it eligible for Organization-phase destruction the turn it is built).
const defaultBuildingDurability = 10

// RunConstruction processes MOBILIZATION and CONSTRUCTION orders in FIFO
// order, per spec.md §4.10.
func RunConstruction(ctx context.Context, s store.Store, guildID, turn int) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseConstruction))
	rt := ruletables.New(s)

	eligible, err := orders.Eligible(ctx, s, guildID, orders.PhaseConstruction)
	if err != nil {
		return nil, fmt.Errorf("construction phase: %w", err)
	}

	for i := range eligible {
		o := &eligible[i]
		var herr error
		switch o.OrderType {
		case types.OrderMobilization:
			herr = handleMobilization(ctx, s, rt, o, turn, b)
		case types.OrderConstruction:
			herr = handleConstruction(ctx, s, rt, o, turn, b)
		default:
			herr = orders.FailNoHandler(ctx, s, o, turn)
			if herr == nil {
				b.Emit(eventlog.TypeOrderFailed, "order", o.ID,
					map[string]any{"order_type": string(o.OrderType), "error": "No handler"}, affectedOf(o))
			}
		}
		if herr != nil {
			return nil, fmt.Errorf("construction phase: order %d (%s): %w", o.ID, o.OrderType, herr)
		}
	}

	return b.Events(), nil
}

// ownerNation returns the nation the given owner mobilizes and builds
// under: a faction's own nation, or the nation of the faction a character
// currently represents.
func ownerNation(ctx context.Context, s store.Store, o types.Owner) (string, int, error) {
	switch o.Kind {
	case types.OwnerFaction:
		f, err := s.GetFaction(ctx, o.FactionID)
		if err != nil {
			return "", 0, err
		}
		return f.Nation, f.ID, nil
	case types.OwnerCharacter:
		char, err := s.GetCharacter(ctx, o.CharacterID)
		if err != nil {
			return "", 0, err
		}
		if char.RepresentedFactionID == 0 {
			return "", 0, nil
		}
		f, err := s.GetFaction(ctx, char.RepresentedFactionID)
		if err != nil {
			if isNotFound(err) {
				return "", 0, nil
			}
			return "", 0, err
		}
		return f.Nation, f.ID, nil
	default:
		return "", 0, nil
	}
}

// validateActor checks that o.CharacterID holds the right to spend on
// owner's behalf: itself for a personal owner, or COMMAND/FINANCIAL
// permission (or faction leadership) for a faction owner, per spec.md
// §4.10.
func validateActor(ctx context.Context, s store.Store, guildID int, o types.Owner, actingCharacterID int) (bool, error) {
	switch o.Kind {
	case types.OwnerCharacter:
		return o.CharacterID == actingCharacterID, nil
	case types.OwnerFaction:
		f, err := s.GetFaction(ctx, o.FactionID)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, err
		}
		if f.LeaderCharacterID == actingCharacterID {
			return true, nil
		}
		perms, err := s.ListPermissions(ctx, guildID, f.ID, actingCharacterID)
		if err != nil {
			return false, err
		}
		return hasPermission(perms, types.PermissionCommand) || hasPermission(perms, types.PermissionFinancial), nil
	default:
		return false, nil
	}
}

func failMobilization(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder, reason string) error {
	result, err := json.Marshal(map[string]any{"order_id": o.ID, "error": reason})
	if err != nil {
		return fmt.Errorf("marshal failure result: %w", err)
	}
	o.Status = types.StatusFailed
	o.ResultData = result
	o.UpdatedTurn = turn
	o.UpdatedAt = time.Now()
	if err := s.UpdateOrder(ctx, o); err != nil {
		return fmt.Errorf("update failed order %d: %w", o.ID, err)
	}
	b.Emit(eventlog.TypeMobilizationFailed, "order", o.ID,
		map[string]any{"order_id": o.ID, "error": reason}, affectedOf(o))
	return nil
}

func failConstruction(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder, reason string) error {
	result, err := json.Marshal(map[string]any{"order_id": o.ID, "error": reason})
	if err != nil {
		return fmt.Errorf("marshal failure result: %w", err)
	}
	o.Status = types.StatusFailed
	o.ResultData = result
	o.UpdatedTurn = turn
	o.UpdatedAt = time.Now()
	if err := s.UpdateOrder(ctx, o); err != nil {
		return fmt.Errorf("update failed order %d: %w", o.ID, err)
	}
	b.Emit(eventlog.TypeConstructionFailed, "order", o.ID,
		map[string]any{"order_id": o.ID, "error": reason}, affectedOf(o))
	return nil
}

type mobilizationPayload struct {
	UnitTypeID            string              `json:"unit_type_id"`
	TerritoryID           int                 `json:"territory_id"`
	Owner                 transferPartyPayload `json:"owner"`
	CommanderCharacterID  int                 `json:"commander_character_id"`
}

func handleMobilization(ctx context.Context, s store.Store, rt *ruletables.Tables, o *types.Order, turn int, b *eventlog.Builder) error {
	var p mobilizationPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failMobilization(ctx, s, o, turn, b, "invalid order data")
	}

	owner := p.Owner.owner()
	if !owner.IsSet() {
		return failMobilization(ctx, s, o, turn, b, "no owner specified")
	}
	exists, err := ownerExists(ctx, s, owner)
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return failMobilization(ctx, s, o, turn, b, "owner not found")
	}

	allowed, err := validateActor(ctx, s, o.GuildID, owner, o.CharacterID)
	if err != nil {
		return fmt.Errorf("validate actor: %w", err)
	}
	if !allowed {
		return failMobilization(ctx, s, o, turn, b, "not permitted to mobilize for this owner")
	}

	if _, err := s.GetTerritory(ctx, p.TerritoryID); err != nil {
		if isNotFound(err) {
			return failMobilization(ctx, s, o, turn, b, "territory not found")
		}
		return fmt.Errorf("get territory: %w", err)
	}

	nation, factionID, err := ownerNation(ctx, s, owner)
	if err != nil {
		return fmt.Errorf("owner nation: %w", err)
	}
	if nation == "" {
		return failMobilization(ctx, s, o, turn, b, "owner has no nation")
	}

	ut, err := rt.UnitType(ctx, o.GuildID, p.UnitTypeID, nation)
	if err != nil {
		if isNotFound(err) {
			return failMobilization(ctx, s, o, turn, b, "unknown unit type")
		}
		return fmt.Errorf("get unit type: %w", err)
	}

	balances, err := getOwnerResources(ctx, s, o.GuildID, owner)
	if err != nil {
		return fmt.Errorf("get owner resources: %w", err)
	}
	paid := deductAvailable(balances, ut.Costs)
	if !isFullTransfer(ut.Costs, paid) {
		return failMobilization(ctx, s, o, turn, b, "insufficient resources")
	}
	if err := setOwnerResources(ctx, s, o.GuildID, owner, subtractResources(balances, paid)); err != nil {
		return fmt.Errorf("deduct mobilization cost: %w", err)
	}

	unitID := idgen.GenerateHashID("unit", p.UnitTypeID, fmt.Sprintf("%d:%d", p.TerritoryID, o.ID), "mobilization", time.Now(), 8, 0)
	u := &types.Unit{
		GuildID:              o.GuildID,
		UnitID:               unitID,
		Type:                 p.UnitTypeID,
		Owner:                owner,
		CommanderCharacterID: p.CommanderCharacterID,
		FactionID:            factionID,
		CurrentTerritoryID:   p.TerritoryID,
		Organization:         ut.OrganizationMax,
		MaxOrganization:      ut.OrganizationMax,
		Status:               types.UnitActive,
		IsNaval:              ut.IsNaval,
	}
	if err := s.CreateUnit(ctx, u); err != nil {
		return fmt.Errorf("create unit: %w", err)
	}

	if err := succeedOrder(ctx, s, o, turn, map[string]any{"unit_id": u.UnitID, "cost": paid}); err != nil {
		return err
	}
	b.Emit(eventlog.TypeUnitMobilized, "unit", u.ID,
		map[string]any{"order_id": o.ID, "unit_id": u.UnitID, "cost": paid}, affectedOf(o))
	return nil
}

type constructionPayload struct {
	BuildingTypeID string               `json:"building_type_id"`
	TerritoryID    int                  `json:"territory_id"`
	Owner          transferPartyPayload `json:"owner"`
}

func handleConstruction(ctx context.Context, s store.Store, rt *ruletables.Tables, o *types.Order, turn int, b *eventlog.Builder) error {
	var p constructionPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failConstruction(ctx, s, o, turn, b, "invalid order data")
	}

	owner := p.Owner.owner()
	if !owner.IsSet() {
		return failConstruction(ctx, s, o, turn, b, "no owner specified")
	}
	exists, err := ownerExists(ctx, s, owner)
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return failConstruction(ctx, s, o, turn, b, "owner not found")
	}

	allowed, err := validateActor(ctx, s, o.GuildID, owner, o.CharacterID)
	if err != nil {
		return fmt.Errorf("validate actor: %w", err)
	}
	if !allowed {
		return failConstruction(ctx, s, o, turn, b, "not permitted to build for this owner")
	}

	if _, err := s.GetTerritory(ctx, p.TerritoryID); err != nil {
		if isNotFound(err) {
			return failConstruction(ctx, s, o, turn, b, "territory not found")
		}
		return fmt.Errorf("get territory: %w", err)
	}

	bt, err := rt.BuildingType(ctx, o.GuildID, p.BuildingTypeID)
	if err != nil {
		if isNotFound(err) {
			return failConstruction(ctx, s, o, turn, b, "unknown building type")
		}
		return fmt.Errorf("get building type: %w", err)
	}

	balances, err := getOwnerResources(ctx, s, o.GuildID, owner)
	if err != nil {
		return fmt.Errorf("get owner resources: %w", err)
	}
	paid := deductAvailable(balances, bt.Costs)
	if !isFullTransfer(bt.Costs, paid) {
		return failConstruction(ctx, s, o, turn, b, "insufficient resources")
	}
	if err := setOwnerResources(ctx, s, o.GuildID, owner, subtractResources(balances, paid)); err != nil {
		return fmt.Errorf("deduct construction cost: %w", err)
	}

	buildingID := idgen.GenerateHashID("bldg", p.BuildingTypeID, fmt.Sprintf("%d:%d", p.TerritoryID, o.ID), "construction", time.Now(), 8, 0)
	bldg := &types.Building{
		GuildID:      o.GuildID,
		BuildingID:   buildingID,
		BuildingType: p.BuildingTypeID,
		TerritoryID:  p.TerritoryID,
		Durability:   defaultBuildingDurability,
		Status:       types.BuildingActive,
		Upkeep:       bt.Upkeep,
	}
	if err := s.CreateBuilding(ctx, bldg); err != nil {
		return fmt.Errorf("create building: %w", err)
	}

	if err := succeedOrder(ctx, s, o, turn, map[string]any{"building_id": bldg.BuildingID, "cost": paid}); err != nil {
		return err
	}
	b.Emit(eventlog.TypeBuildingConstructed, "building", bldg.ID,
		map[string]any{"order_id": o.ID, "building_id": bldg.BuildingID, "cost": paid}, affectedOf(o))
	return nil
}
