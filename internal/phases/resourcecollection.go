package phases

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/orders"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// RunResourceCollection runs character production, territory production,
// and the first-war production bonus, in that order, then emits one
// aggregated event per affected character and faction, per spec.md §4.5.
func RunResourceCollection(ctx context.Context, s store.Store, guildID, turn int) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseResourceCollection))

	charAdd := map[int]types.ResourceSet{}
	charWarBonus := map[int]types.ResourceSet{}
	factionAdd := map[int]types.ResourceSet{}

	characters, err := s.ListCharacters(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("resource collection phase: list characters: %w", err)
	}
	for _, c := range characters {
		if c.Production.IsZero() {
			continue
		}
		charAdd[c.ID] = charAdd[c.ID].Add(c.Production)
	}

	territories, err := s.ListTerritories(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("resource collection phase: list territories: %w", err)
	}
	for _, t := range territories {
		if t.SacredLand || !t.Controller.IsSet() || t.Production.IsZero() {
			continue
		}
		switch t.Controller.Kind {
		case types.OwnerCharacter:
			charAdd[t.Controller.CharacterID] = charAdd[t.Controller.CharacterID].Add(t.Production)
		case types.OwnerFaction:
			factionAdd[t.Controller.FactionID] = factionAdd[t.Controller.FactionID].Add(t.Production)
		}
	}

	if err := applyFirstWarBonus(ctx, s, guildID, turn, territories, charAdd, charWarBonus); err != nil {
		return nil, fmt.Errorf("resource collection phase: %w", err)
	}

	charIDs := make([]int, 0, len(charAdd)+len(charWarBonus))
	seen := map[int]bool{}
	for cid := range charAdd {
		if !seen[cid] {
			seen[cid] = true
			charIDs = append(charIDs, cid)
		}
	}
	for cid := range charWarBonus {
		if !seen[cid] {
			seen[cid] = true
			charIDs = append(charIDs, cid)
		}
	}
	sort.Ints(charIDs)

	for _, cid := range charIDs {
		total := charAdd[cid]
		if total.IsZero() && charWarBonus[cid].IsZero() {
			continue
		}
		pr, err := s.GetPlayerResources(ctx, guildID, cid)
		if err != nil {
			if isNotFound(err) {
				pr = &types.PlayerResources{CharacterID: cid, GuildID: guildID}
			} else {
				return nil, fmt.Errorf("resource collection phase: get player resources %d: %w", cid, err)
			}
		}
		pr.Balances = pr.Balances.Add(total)
		if err := s.SetPlayerResources(ctx, pr); err != nil {
			return nil, fmt.Errorf("resource collection phase: set player resources %d: %w", cid, err)
		}

		payload := map[string]any{"character_id": cid, "amounts": total}
		if wb := charWarBonus[cid]; !wb.IsZero() {
			payload["war_bonus"] = wb
		}
		b.Emit(eventlog.TypeCharacterProduction, "character", cid, payload, []int{cid})
	}

	factionIDs := make([]int, 0, len(factionAdd))
	for fid := range factionAdd {
		factionIDs = append(factionIDs, fid)
	}
	sort.Ints(factionIDs)

	for _, fid := range factionIDs {
		total := factionAdd[fid]
		if total.IsZero() {
			continue
		}
		fr, err := s.GetFactionResources(ctx, guildID, fid)
		if err != nil {
			if isNotFound(err) {
				fr = &types.FactionResources{FactionID: fid, GuildID: guildID}
			} else {
				return nil, fmt.Errorf("resource collection phase: get faction resources %d: %w", fid, err)
			}
		}
		fr.Balances = fr.Balances.Add(total)
		if err := s.SetFactionResources(ctx, fr); err != nil {
			return nil, fmt.Errorf("resource collection phase: set faction resources %d: %w", fid, err)
		}

		affected, err := permissionAffected(ctx, s, guildID, fid, types.PermissionFinancial)
		if err != nil {
			return nil, fmt.Errorf("resource collection phase: %w", err)
		}
		b.Emit(eventlog.TypeFactionTerritoryProduction, "faction", fid,
			map[string]any{"faction_id": fid, "amounts": total}, affected)
	}

	return b.Events(), nil
}

type declareWarResult struct {
	WarID         string `json:"war_id"`
	FirstWarBonus bool   `json:"first_war_bonus"`
}

// applyFirstWarBonus implements spec.md §4.5 step 3: every member of a
// faction whose DECLARE_WAR order succeeded this turn and was flagged
// first_war_bonus receives a second production addition equal to their own
// personal production plus the production of territories they personally
// control.
func applyFirstWarBonus(
	ctx context.Context, s store.Store, guildID, turn int, territories []types.Territory,
	charAdd, charWarBonus map[int]types.ResourceSet,
) error {
	personalProduction := map[int]types.ResourceSet{}
	for _, t := range territories {
		if t.SacredLand || t.Controller.Kind != types.OwnerCharacter || t.Production.IsZero() {
			continue
		}
		personalProduction[t.Controller.CharacterID] = personalProduction[t.Controller.CharacterID].Add(t.Production)
	}

	warOrders, err := s.ListOrders(ctx, guildID, store.OrderFilter{
		Types:    []types.OrderType{types.OrderDeclareWar},
		Statuses: []types.OrderStatus{types.StatusSuccess},
	})
	if err != nil {
		return fmt.Errorf("list declare war orders: %w", err)
	}

	for _, o := range warOrders {
		if o.UpdatedTurn != turn || len(o.ResultData) == 0 {
			continue
		}
		var result declareWarResult
		if err := json.Unmarshal(o.ResultData, &result); err != nil || !result.FirstWarBonus {
			continue
		}

		members, err := s.ListFactionMembers(ctx, guildID, o.SubmittingFactionID)
		if err != nil {
			return fmt.Errorf("list faction members %d: %w", o.SubmittingFactionID, err)
		}
		for _, m := range members {
			char, err := s.GetCharacter(ctx, m.CharacterID)
			if err != nil {
				if isNotFound(err) {
					continue
				}
				return fmt.Errorf("get character %d: %w", m.CharacterID, err)
			}
			bonus := char.Production.Add(personalProduction[char.ID])
			if bonus.IsZero() {
				continue
			}
			charAdd[char.ID] = charAdd[char.ID].Add(bonus)
			charWarBonus[char.ID] = charWarBonus[char.ID].Add(bonus)
		}
	}
	return nil
}
