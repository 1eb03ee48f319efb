// Package phases holds the nine turn-phase handlers, one file per phase,
// each a Run(ctx, s, guildID, turn) entry point the engine calls in the
// fixed order package orders declares. A phase never appends its own
// events to the store — it hands the accumulated eventlog.Builder back so
// the engine can persist every phase's events together inside the turn's
// single WithTx.
package phases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/idgen"
	"github.com/legionforge/engine/internal/orders"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// RunBeginning executes every eligible BEGINNING-phase order in priority
// order and returns the events they produced. Business-rule failures
// (bad target, permission denied, ...) are resolved into a FAILED order and
// an ORDER_FAILED event, not a returned error; only store/infra failures
// abort the phase, per spec.md §5 (a mid-phase failure rolls back the
// whole resolve_turn call).
func RunBeginning(ctx context.Context, s store.Store, guildID, turn int) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseBeginning))

	eligible, err := orders.Eligible(ctx, s, guildID, orders.PhaseBeginning)
	if err != nil {
		return nil, fmt.Errorf("beginning phase: %w", err)
	}

	for i := range eligible {
		o := &eligible[i]
		var herr error
		switch o.OrderType {
		case types.OrderLeaveFaction:
			herr = handleLeaveFaction(ctx, s, o, turn, b)
		case types.OrderKickFromFaction:
			herr = handleKickFromFaction(ctx, s, o, turn, b)
		case types.OrderJoinFaction:
			herr = handleJoinFaction(ctx, s, o, turn, b)
		case types.OrderAssignCommander:
			herr = handleAssignCommander(ctx, s, o, turn, b)
		case types.OrderAssignVictoryPoints:
			herr = handleAssignVictoryPoints(ctx, s, o, turn, b)
		case types.OrderMakeAlliance:
			herr = handleMakeAlliance(ctx, s, o, turn, b)
		case types.OrderDissolveAlliance:
			herr = handleDissolveAlliance(ctx, s, o, turn, b)
		case types.OrderDeclareWar:
			herr = handleDeclareWar(ctx, s, o, turn, b)
		default:
			herr = orders.FailNoHandler(ctx, s, o, turn)
			if herr == nil {
				b.Emit(eventlog.TypeOrderFailed, "order", o.ID,
					map[string]any{"order_type": string(o.OrderType), "error": "No handler"},
					affectedOf(o))
			}
		}
		if herr != nil {
			return nil, fmt.Errorf("beginning phase: order %d (%s): %w", o.ID, o.OrderType, herr)
		}
	}

	return b.Events(), nil
}

func affectedOf(o *types.Order) []int {
	if o.CharacterID == 0 {
		return nil
	}
	return []int{o.CharacterID}
}

// failOrder marks o FAILED with reason and persists it. Returns a non-nil
// error only if the store write itself fails.
func failOrder(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder, reason string) error {
	result, err := json.Marshal(map[string]any{"error": reason})
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
	b.Emit(eventlog.TypeOrderFailed, "order", o.ID,
		map[string]any{"order_type": string(o.OrderType), "error": reason}, affectedOf(o))
	return nil
}

// succeedOrder marks o SUCCESS with resultData and persists it.
func succeedOrder(ctx context.Context, s store.Store, o *types.Order, turn int, resultData map[string]any) error {
	var raw []byte
	var err error
	if resultData != nil {
		raw, err = json.Marshal(resultData)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}
	o.Status = types.StatusSuccess
	o.ResultData = raw
	o.UpdatedTurn = turn
	o.UpdatedAt = time.Now()
	if err := s.UpdateOrder(ctx, o); err != nil {
		return fmt.Errorf("update succeeded order %d: %w", o.ID, err)
	}
	return nil
}

// mostRecentFactionID returns the FactionID of the membership with the
// highest JoinedTurn, or 0 if memberships is empty.
func mostRecentFactionID(memberships []types.FactionMember) int {
	best, bestTurn := 0, -1
	for _, m := range memberships {
		if m.JoinedTurn > bestTurn {
			bestTurn, best = m.JoinedTurn, m.FactionID
		}
	}
	return best
}

// reassignAfterDeparture runs the representation/unit-ownership fallout
// shared by LEAVE_FACTION and KICK_FROM_FACTION: if the faction the
// character just left was their represented faction, fall back to the
// most recently joined remaining membership (without touching the
// representation-change cooldown), then reassign any faction-scoped unit
// ownership to match.
func reassignAfterDeparture(ctx context.Context, s store.Store, guildID int, char *types.Character, leftFactionID int) error {
	if char.RepresentedFactionID != leftFactionID {
		return nil
	}

	memberships, err := s.ListMembershipsForCharacter(ctx, guildID, char.ID)
	if err != nil {
		return fmt.Errorf("list memberships for character %d: %w", char.ID, err)
	}
	char.RepresentedFactionID = mostRecentFactionID(memberships)
	if err := s.UpdateCharacter(ctx, char); err != nil {
		return fmt.Errorf("update character %d representation: %w", char.ID, err)
	}

	units, err := s.ListUnits(ctx, guildID, store.UnitFilter{OwnerCharacterID: char.ID, FactionID: leftFactionID})
	if err != nil {
		return fmt.Errorf("list units for reassignment: %w", err)
	}
	for i := range units {
		u := units[i]
		u.FactionID = char.RepresentedFactionID
		if err := s.UpdateUnit(ctx, &u); err != nil {
			return fmt.Errorf("reassign unit %d: %w", u.ID, err)
		}
	}
	return nil
}

type factionTargetPayload struct {
	FactionID string `json:"faction_id"`
}

func handleLeaveFaction(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) error {
	var p factionTargetPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}

	char, err := s.GetCharacter(ctx, o.CharacterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "character not found")
		}
		return fmt.Errorf("get character: %w", err)
	}

	faction, err := s.GetFactionByFactionID(ctx, o.GuildID, p.FactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "faction not found")
		}
		return fmt.Errorf("get faction: %w", err)
	}
	if faction.LeaderCharacterID == char.ID {
		return failOrder(ctx, s, o, turn, b, "assign a new leader first")
	}

	if err := s.RemoveFactionMember(ctx, o.GuildID, faction.ID, char.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "not a member of that faction")
		}
		return fmt.Errorf("remove faction member: %w", err)
	}

	if err := reassignAfterDeparture(ctx, s, o.GuildID, char, faction.ID); err != nil {
		return err
	}

	if err := succeedOrder(ctx, s, o, turn, nil); err != nil {
		return err
	}
	b.Emit(eventlog.TypeFactionLeft, "character", char.ID,
		map[string]any{"character_id": char.ID, "faction_id": faction.FactionID}, affectedOf(o))
	return nil
}

type kickFromFactionPayload struct {
	CharacterID int `json:"character_id"`
}

func handleKickFromFaction(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) error {
	var p kickFromFactionPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}
	if o.SubmittingFactionID == 0 {
		return failOrder(ctx, s, o, turn, b, "no submitting faction")
	}

	faction, err := s.GetFaction(ctx, o.SubmittingFactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "faction not found")
		}
		return fmt.Errorf("get faction: %w", err)
	}

	if faction.LeaderCharacterID != o.CharacterID {
		perms, err := s.ListPermissions(ctx, o.GuildID, faction.ID, o.CharacterID)
		if err != nil {
			return fmt.Errorf("list permissions: %w", err)
		}
		if !hasPermission(perms, types.PermissionCommand) {
			return failOrder(ctx, s, o, turn, b, "not permitted to kick members")
		}
	}
	if faction.LeaderCharacterID == p.CharacterID {
		return failOrder(ctx, s, o, turn, b, "cannot kick the leader")
	}

	target, err := s.GetCharacter(ctx, p.CharacterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "target character not found")
		}
		return fmt.Errorf("get character: %w", err)
	}

	if err := s.RemoveFactionMember(ctx, o.GuildID, faction.ID, target.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "not a member of that faction")
		}
		return fmt.Errorf("remove faction member: %w", err)
	}

	if err := reassignAfterDeparture(ctx, s, o.GuildID, target, faction.ID); err != nil {
		return err
	}

	if err := succeedOrder(ctx, s, o, turn, nil); err != nil {
		return err
	}
	b.Emit(eventlog.TypeFactionKicked, "character", target.ID,
		map[string]any{"character_id": target.ID, "faction_id": faction.FactionID, "kicked_by": o.CharacterID},
		[]int{target.ID, o.CharacterID})
	return nil
}

func hasPermission(perms []types.FactionPermission, want types.PermissionType) bool {
	for _, p := range perms {
		if p.PermissionType == want {
			return true
		}
	}
	return false
}

func handleJoinFaction(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) error {
	var p factionTargetPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}

	char, err := s.GetCharacter(ctx, o.CharacterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "character not found")
		}
		return fmt.Errorf("get character: %w", err)
	}

	faction, err := s.GetFactionByFactionID(ctx, o.GuildID, p.FactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "faction not found")
		}
		return fmt.Errorf("get faction: %w", err)
	}

	existing, err := s.ListMembershipsForCharacter(ctx, o.GuildID, char.ID)
	if err != nil {
		return fmt.Errorf("list memberships: %w", err)
	}
	isFirst := len(existing) == 0

	if err := s.AddFactionMember(ctx, types.FactionMember{
		GuildID: o.GuildID, FactionID: faction.ID, CharacterID: char.ID, JoinedTurn: turn + 1,
	}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return failOrder(ctx, s, o, turn, b, "already a member of that faction")
		}
		return fmt.Errorf("add faction member: %w", err)
	}

	if isFirst {
		char.RepresentedFactionID = faction.ID
		char.RepresentationChangedTurn = turn
		if err := s.UpdateCharacter(ctx, char); err != nil {
			return fmt.Errorf("update character representation: %w", err)
		}
	}

	if err := succeedOrder(ctx, s, o, turn, nil); err != nil {
		return err
	}
	b.Emit(eventlog.TypeFactionJoined, "character", char.ID,
		map[string]any{"character_id": char.ID, "faction_id": faction.FactionID, "first_faction": isFirst},
		affectedOf(o))
	return nil
}

type assignCommanderPayload struct {
	UnitID               int `json:"unit_id"`
	CommanderCharacterID int `json:"commander_character_id"`
}

func handleAssignCommander(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) error {
	var p assignCommanderPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}

	unit, err := s.GetUnit(ctx, p.UnitID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "unit not found")
		}
		return fmt.Errorf("get unit: %w", err)
	}

	if p.CommanderCharacterID != 0 && unit.FactionID != 0 {
		members, err := s.ListFactionMembers(ctx, o.GuildID, unit.FactionID)
		if err != nil {
			return fmt.Errorf("list faction members: %w", err)
		}
		found := false
		for _, m := range members {
			if m.CharacterID == p.CommanderCharacterID {
				found = true
				break
			}
		}
		if !found {
			return failOrder(ctx, s, o, turn, b, "commander is not a member of the unit's faction")
		}
	}

	unit.CommanderCharacterID = p.CommanderCharacterID
	if err := s.UpdateUnit(ctx, unit); err != nil {
		return fmt.Errorf("update unit: %w", err)
	}

	if err := succeedOrder(ctx, s, o, turn, nil); err != nil {
		return err
	}
	b.Emit(eventlog.TypeCommanderAssigned, "unit", unit.ID,
		map[string]any{"unit_id": unit.ID, "commander_character_id": p.CommanderCharacterID},
		[]int{o.CharacterID, p.CommanderCharacterID})
	return nil
}

func handleAssignVictoryPoints(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) error {
	if o.Status == types.StatusOngoing {
		// Standing order already running; VP totals are computed at read
		// time elsewhere, nothing to do until cancelled.
		return nil
	}

	var p factionTargetPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}

	faction, err := s.GetFactionByFactionID(ctx, o.GuildID, p.FactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "faction not found")
		}
		return fmt.Errorf("get faction: %w", err)
	}

	o.Status = types.StatusOngoing
	o.UpdatedTurn = turn
	o.UpdatedAt = time.Now()
	if err := s.UpdateOrder(ctx, o); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	b.Emit(eventlog.TypeVPAssignmentStarted, "faction", faction.ID,
		map[string]any{"character_id": o.CharacterID, "target_faction_id": faction.FactionID}, affectedOf(o))
	return nil
}

func handleMakeAlliance(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) error {
	var p factionTargetPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}
	if o.SubmittingFactionID == 0 {
		return failOrder(ctx, s, o, turn, b, "no submitting faction")
	}

	target, err := s.GetFactionByFactionID(ctx, o.GuildID, p.FactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "faction not found")
		}
		return fmt.Errorf("get faction: %w", err)
	}
	if target.ID == o.SubmittingFactionID {
		return failOrder(ctx, s, o, turn, b, "cannot ally with yourself")
	}

	a, bID := types.CanonicalPair(o.SubmittingFactionID, target.ID)
	existing, err := s.GetAlliance(ctx, o.GuildID, a, bID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get alliance: %w", err)
	}

	if existing == nil {
		status := types.AlliancePendingA
		if o.SubmittingFactionID == a {
			status = types.AlliancePendingB
		}
		al := &types.Alliance{
			GuildID: o.GuildID, FactionAID: a, FactionBID: bID,
			Status: status, InitiatedByFaction: o.SubmittingFactionID, CreatedAt: time.Now(),
		}
		if err := s.UpsertAlliance(ctx, al); err != nil {
			return fmt.Errorf("upsert alliance: %w", err)
		}
		if err := succeedOrder(ctx, s, o, turn, nil); err != nil {
			return err
		}
		b.Emit(eventlog.TypeAlliancePending, "faction", target.ID,
			map[string]any{"faction_a_id": a, "faction_b_id": bID, "initiated_by_faction": o.SubmittingFactionID},
			affectedOf(o))
		return nil
	}

	switch existing.Status {
	case types.AllianceActive:
		return failOrder(ctx, s, o, turn, b, "already allied")
	case types.AlliancePendingB:
		if o.SubmittingFactionID != bID {
			return failOrder(ctx, s, o, turn, b, "alliance already proposed, awaiting response")
		}
	case types.AlliancePendingA:
		if o.SubmittingFactionID != a {
			return failOrder(ctx, s, o, turn, b, "alliance already proposed, awaiting response")
		}
	}

	now := time.Now()
	existing.Status = types.AllianceActive
	existing.ActivatedAt = &now
	if err := s.UpsertAlliance(ctx, existing); err != nil {
		return fmt.Errorf("upsert alliance: %w", err)
	}
	if err := succeedOrder(ctx, s, o, turn, nil); err != nil {
		return err
	}
	b.Emit(eventlog.TypeAllianceActivated, "faction", target.ID,
		map[string]any{"faction_a_id": a, "faction_b_id": bID}, affectedOf(o))
	return nil
}

func handleDissolveAlliance(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) error {
	var p factionTargetPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}
	if o.SubmittingFactionID == 0 {
		return failOrder(ctx, s, o, turn, b, "no submitting faction")
	}

	target, err := s.GetFactionByFactionID(ctx, o.GuildID, p.FactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "faction not found")
		}
		return fmt.Errorf("get faction: %w", err)
	}

	a, bID := types.CanonicalPair(o.SubmittingFactionID, target.ID)
	if err := s.DeleteAlliance(ctx, o.GuildID, a, bID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failOrder(ctx, s, o, turn, b, "no alliance exists")
		}
		return fmt.Errorf("delete alliance: %w", err)
	}

	if err := succeedOrder(ctx, s, o, turn, nil); err != nil {
		return err
	}
	b.Emit(eventlog.TypeAllianceDissolved, "faction", target.ID,
		map[string]any{"faction_a_id": a, "faction_b_id": bID, "dissolved_by_faction": o.SubmittingFactionID},
		affectedOf(o))
	return nil
}

type declareWarPayload struct {
	TargetFactionIDs []string `json:"target_faction_ids"`
	Objective        string   `json:"objective"`
}

func handleDeclareWar(ctx context.Context, s store.Store, o *types.Order, turn int, b *eventlog.Builder) error {
	var p declareWarPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return failOrder(ctx, s, o, turn, b, "invalid order data")
	}
	if o.SubmittingFactionID == 0 || len(p.TargetFactionIDs) == 0 {
		return failOrder(ctx, s, o, turn, b, "no submitting faction or target")
	}

	targetIDs := make([]int, 0, len(p.TargetFactionIDs))
	for _, fid := range p.TargetFactionIDs {
		f, err := s.GetFactionByFactionID(ctx, o.GuildID, fid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return failOrder(ctx, s, o, turn, b, "target faction not found: "+fid)
			}
			return fmt.Errorf("get faction: %w", err)
		}
		if f.ID == o.SubmittingFactionID {
			return failOrder(ctx, s, o, turn, b, "cannot declare war on yourself")
		}
		targetIDs = append(targetIDs, f.ID)
	}

	priorWars, err := s.ListActiveWarsForFaction(ctx, o.GuildID, o.SubmittingFactionID)
	if err != nil {
		return fmt.Errorf("list prior wars: %w", err)
	}
	firstWar := len(priorWars) == 0

	warID := idgen.GenerateHashID("war", p.Objective, fmt.Sprintf("%d", o.SubmittingFactionID), "declare_war", time.Now(), 8, 0)
	war := &types.War{GuildID: o.GuildID, WarID: warID, Objective: p.Objective, DeclaredTurn: turn}
	if err := s.CreateWar(ctx, war); err != nil {
		return fmt.Errorf("create war: %w", err)
	}

	sideA := map[int]bool{o.SubmittingFactionID: true}
	sideB := map[int]bool{}
	for _, id := range targetIDs {
		sideB[id] = true
	}

	type dragged struct {
		factionID int
		side      types.WarSide
	}
	var draggedIn []dragged

	for changed := true; changed; {
		changed = false
		for fid := range copySet(sideA) {
			added, err := dragInAllies(ctx, s, o.GuildID, fid, sideA, sideB)
			if err != nil {
				return err
			}
			for _, a := range added {
				draggedIn = append(draggedIn, dragged{a, types.SideA})
				changed = true
			}
		}
		for fid := range copySet(sideB) {
			added, err := dragInAllies(ctx, s, o.GuildID, fid, sideB, sideA)
			if err != nil {
				return err
			}
			for _, a := range added {
				draggedIn = append(draggedIn, dragged{a, types.SideB})
				changed = true
			}
		}
	}

	for fid := range sideA {
		if err := s.AddWarParticipant(ctx, types.WarParticipant{
			GuildID: o.GuildID, WarID: war.ID, FactionID: fid, Side: types.SideA,
			JoinedTurn: turn, IsOriginalDeclarer: fid == o.SubmittingFactionID,
		}); err != nil {
			return fmt.Errorf("add war participant: %w", err)
		}
	}
	for fid := range sideB {
		if err := s.AddWarParticipant(ctx, types.WarParticipant{
			GuildID: o.GuildID, WarID: war.ID, FactionID: fid, Side: types.SideB,
			JoinedTurn: turn, IsOriginalDeclarer: isOriginalTarget(fid, targetIDs),
		}); err != nil {
			return fmt.Errorf("add war participant: %w", err)
		}
	}

	result := map[string]any{"war_id": warID}
	if firstWar {
		result["first_war_bonus"] = true
	}
	if err := succeedOrder(ctx, s, o, turn, result); err != nil {
		return err
	}

	b.Emit(eventlog.TypeWarDeclared, "war", war.ID,
		map[string]any{
			"war_id": warID, "declaring_faction_id": o.SubmittingFactionID,
			"target_faction_ids": targetIDs, "objective": p.Objective,
		}, affectedOf(o))
	for _, d := range draggedIn {
		b.Emit(eventlog.TypeWarAllyDraggedIn, "war", war.ID,
			map[string]any{"war_id": warID, "faction_id": d.factionID, "side": string(d.side)}, nil)
	}
	return nil
}

func isOriginalTarget(fid int, targetIDs []int) bool {
	for _, t := range targetIDs {
		if t == fid {
			return true
		}
	}
	return false
}

func copySet(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// dragInAllies adds every faction actively allied with fid to side (unless
// already claimed by side or other), returning the newly added faction IDs.
func dragInAllies(ctx context.Context, s store.Store, guildID, fid int, side, other map[int]bool) ([]int, error) {
	allies, err := s.ListActiveAlliancesForFaction(ctx, guildID, fid)
	if err != nil {
		return nil, fmt.Errorf("list alliances for faction %d: %w", fid, err)
	}
	var added []int
	for _, al := range allies {
		ally := al.FactionAID
		if ally == fid {
			ally = al.FactionBID
		}
		if side[ally] || other[ally] {
			continue
		}
		side[ally] = true
		added = append(added, ally)
	}
	return added, nil
}
