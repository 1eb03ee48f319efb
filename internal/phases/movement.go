package phases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/orders"
	"github.com/legionforge/engine/internal/ruletables"
	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// movementAction is the kind of motion a UNIT order requests.
type movementAction string

const (
	actionTransit        movementAction = "transit"
	actionPatrol         movementAction = "patrol"
	actionNavalTransport movementAction = "naval_transport"
	actionNavalTransit   movementAction = "naval_transit"
	actionNavalPatrol    movementAction = "naval_patrol"
	actionNavalWait      movementAction = "naval_wait"
)

func (a movementAction) isNaval() bool {
	switch a {
	case actionNavalTransport, actionNavalTransit, actionNavalPatrol, actionNavalWait:
		return true
	default:
		return false
	}
}

// movementStatus is a MovementState's position in its own lifecycle, per
// spec.md §4.3.
type movementStatus string

const (
	statusMoving          movementStatus = "MOVING"
	statusStoppedEngaged  movementStatus = "STOPPED_ENGAGED"
	statusTransported     movementStatus = "TRANSPORTED"
	statusWaitingTransport movementStatus = "WAITING_TRANSPORT"
	statusDone            movementStatus = "DONE"
)

type unitOrderPayload struct {
	PrimaryUnitID int    `json:"primary_unit_id"`
	StackUnitIDs  []int  `json:"stack_unit_ids"`
	Path          []int  `json:"path"`
	Action        string `json:"action"`
}

// movementState is the per-order working set the tick loop advances.
// Grounded on spec.md §4.3's MovementState object.
type movementState struct {
	order               *types.Order
	stack               []*types.Unit
	path                []int
	currentIndex        int
	totalMovementPoints int
	status              movementStatus
	action              movementAction
	carrier             *movementState
	engaged             bool
}

func (m *movementState) primary() *types.Unit { return m.stack[0] }

func (m *movementState) atEnd() bool { return m.currentIndex >= len(m.path)-1 }

func (m *movementState) nextTerritory() int {
	if m.atEnd() {
		return m.path[m.currentIndex]
	}
	return m.path[m.currentIndex+1]
}

func (m *movementState) currentTerritory() int { return m.path[m.currentIndex] }

// RunMovement executes land movement as a tick loop coupled with naval
// transport, per spec.md §4.3. A setup failure on a single order fails
// that order only; store/infra errors abort the whole phase.
func RunMovement(ctx context.Context, s store.Store, guildID, turn int) ([]eventlog.Event, error) {
	b := eventlog.NewBuilder(guildID, turn, string(orders.PhaseMovement))
	obs := eventlog.NewBuilder(guildID, turn, string(orders.PhaseMovement))
	rt := ruletables.New(s)

	adjacency, err := adjacencySet(ctx, s, guildID)
	if err != nil {
		return nil, fmt.Errorf("movement phase: %w", err)
	}
	territoryIDs, err := territorySet(ctx, s, guildID)
	if err != nil {
		return nil, fmt.Errorf("movement phase: %w", err)
	}

	eligible, err := orders.Eligible(ctx, s, guildID, orders.PhaseMovement)
	if err != nil {
		return nil, fmt.Errorf("movement phase: %w", err)
	}

	var states []*movementState
	for i := range eligible {
		o := &eligible[i]
		st, err := buildMovementState(ctx, s, rt, o, turn, b, adjacency, territoryIDs)
		if err != nil {
			return nil, fmt.Errorf("movement phase: order %d: %w", o.ID, err)
		}
		if st != nil {
			states = append(states, st)
		}
	}

	// Tie-break: faster stacks move first within a tick, older orders
	// first on ties.
	sort.SliceStable(states, func(i, j int) bool {
		if states[i].totalMovementPoints != states[j].totalMovementPoints {
			return states[i].totalMovementPoints > states[j].totalMovementPoints
		}
		return states[i].order.ID < states[j].order.ID
	})

	wars, err := buildWarSides(ctx, s, guildID)
	if err != nil {
		return nil, fmt.Errorf("movement phase: %w", err)
	}

	// Units with no MOVEMENT order of their own still participate in
	// engagement, patrol, and observation checks as stationary defenders.
	static, err := buildStaticParticipants(ctx, s, guildID, states)
	if err != nil {
		return nil, fmt.Errorf("movement phase: %w", err)
	}
	participants := append(append([]*movementState{}, states...), static...)

	// Pre-tick boarding: land states whose next step crosses water attach
	// to a same-tile naval_transport state with spare capacity.
	attemptBoarding(states, territoryIDs)

	// Initial engagement check before any ticks run.
	checkEngagement(participants, wars, b)

	maxTick := 0
	for _, st := range states {
		if st.totalMovementPoints > maxTick {
			maxTick = st.totalMovementPoints
		}
	}

	for tick := maxTick; tick >= 1; tick-- {
		patrolEngagement(participants, wars, b)
		advanceTransports(tick, states)
		advanceLand(tick, states)
		checkEngagement(participants, wars, b)
		observe(participants, territoryIDs, adjacency, obs, tick)
	}
	// Post-loop extra sweep.
	checkEngagement(participants, wars, b)
	observe(participants, territoryIDs, adjacency, obs, 0)

	deduped := eventlog.DedupObservations(obs.Events())

	for _, st := range states {
		if err := finalizeMovementState(ctx, s, st, turn, b); err != nil {
			return nil, fmt.Errorf("movement phase: finalize order %d: %w", st.order.ID, err)
		}
	}

	return append(b.Events(), deduped...), nil
}

func adjacencySet(ctx context.Context, s store.Store, guildID int) (map[[2]int]bool, error) {
	adj, err := s.ListAdjacency(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list adjacency: %w", err)
	}
	out := make(map[[2]int]bool, len(adj)*2)
	for _, a := range adj {
		out[[2]int{a.A, a.B}] = true
		out[[2]int{a.B, a.A}] = true
	}
	return out, nil
}

func territorySet(ctx context.Context, s store.Store, guildID int) (map[int]types.Territory, error) {
	terr, err := s.ListTerritories(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list territories: %w", err)
	}
	out := make(map[int]types.Territory, len(terr))
	for _, t := range terr {
		out[t.ID] = t
	}
	return out, nil
}

// buildWarSides maps factionID -> warID -> side, so two factions' hostility
// can be tested without a store round trip inside the tick loop.
func buildWarSides(ctx context.Context, s store.Store, guildID int) (map[int]map[int]types.WarSide, error) {
	factions, err := s.ListFactions(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list factions: %w", err)
	}
	out := make(map[int]map[int]types.WarSide, len(factions))
	for _, f := range factions {
		wars, err := s.ListActiveWarsForFaction(ctx, guildID, f.ID)
		if err != nil {
			return nil, fmt.Errorf("list wars for faction %d: %w", f.ID, err)
		}
		sides := make(map[int]types.WarSide, len(wars))
		for _, w := range wars {
			participants, err := s.ListWarParticipants(ctx, guildID, w.ID)
			if err != nil {
				return nil, fmt.Errorf("list war participants: %w", err)
			}
			for _, p := range participants {
				if p.FactionID == f.ID {
					sides[w.ID] = p.Side
					break
				}
			}
		}
		out[f.ID] = sides
	}
	return out, nil
}

func hostileFactions(a, b int, wars map[int]map[int]types.WarSide) bool {
	if a == 0 || b == 0 {
		return false
	}
	for warID, sideA := range wars[a] {
		if sideB, ok := wars[b][warID]; ok && sideA != sideB {
			return true
		}
	}
	return false
}

func buildMovementState(
	ctx context.Context, s store.Store, rt *ruletables.Tables, o *types.Order, turn int,
	b *eventlog.Builder, adjacency map[[2]int]bool, territories map[int]types.Territory,
) (*movementState, error) {
	var p unitOrderPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return nil, failOrder(ctx, s, o, turn, b, "invalid order data")
	}
	if len(p.Path) == 0 {
		return nil, failOrder(ctx, s, o, turn, b, "empty path")
	}

	ids := append([]int{p.PrimaryUnitID}, p.StackUnitIDs...)
	stack := make([]*types.Unit, 0, len(ids))
	for _, id := range ids {
		u, err := s.GetUnit(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return nil, failOrder(ctx, s, o, turn, b, fmt.Sprintf("unit %d not found", id))
			}
			return nil, fmt.Errorf("get unit %d: %w", id, err)
		}
		if u.Status == types.UnitDisbanded {
			return nil, failOrder(ctx, s, o, turn, b, fmt.Sprintf("unit %d is disbanded", id))
		}
		stack = append(stack, u)
	}

	for _, tid := range p.Path {
		if _, ok := territories[tid]; !ok {
			return nil, failOrder(ctx, s, o, turn, b, fmt.Sprintf("territory %d not in guild", tid))
		}
	}
	for i := 0; i+1 < len(p.Path); i++ {
		if !adjacency[[2]int{p.Path[i], p.Path[i+1]}] {
			return nil, failOrder(ctx, s, o, turn, b, fmt.Sprintf("territories %d and %d are not adjacent", p.Path[i], p.Path[i+1]))
		}
	}
	if p.Path[0] != stack[0].CurrentTerritoryID {
		return nil, failOrder(ctx, s, o, turn, b, "path does not start at the unit's current territory")
	}

	minMovement := -1
	for _, u := range stack {
		nation, err := unitNation(ctx, s, u)
		if err != nil {
			return nil, fmt.Errorf("resolve unit nation: %w", err)
		}
		ut, err := rt.UnitType(ctx, o.GuildID, u.Type, nation)
		if err != nil {
			if isNotFound(err) {
				return nil, failOrder(ctx, s, o, turn, b, fmt.Sprintf("unknown unit type %s/%s", u.Type, nation))
			}
			return nil, fmt.Errorf("get unit type: %w", err)
		}
		if minMovement < 0 || ut.Movement < minMovement {
			minMovement = ut.Movement
		}
	}

	return &movementState{
		order: o, stack: stack, path: p.Path, currentIndex: 0,
		totalMovementPoints: minMovement, status: statusMoving, action: movementAction(p.Action),
	}, nil
}

// unitNation resolves the nation used to key a unit's UnitType row: the
// unit's home faction's nation if it has one, else the owning character's
// represented faction's nation, else "".
func unitNation(ctx context.Context, s store.Store, u *types.Unit) (string, error) {
	factionID := u.FactionID
	if factionID == 0 && u.Owner.Kind == types.OwnerCharacter {
		char, err := s.GetCharacter(ctx, u.Owner.CharacterID)
		if err != nil && !isNotFound(err) {
			return "", err
		}
		if char != nil {
			factionID = char.RepresentedFactionID
		}
	}
	if factionID == 0 {
		return "", nil
	}
	f, err := s.GetFaction(ctx, factionID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return f.Nation, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// buildStaticParticipants wraps every ACTIVE unit not already part of a
// movement order into a parked movementState (path of length one, zero
// movement points) so checkEngagement/patrolEngagement/observe see
// stationary defenders too. These never advance and are never finalized.
func buildStaticParticipants(ctx context.Context, s store.Store, guildID int, moving []*movementState) ([]*movementState, error) {
	inOrder := make(map[int]bool)
	for _, st := range moving {
		for _, u := range st.stack {
			inOrder[u.ID] = true
		}
	}

	units, err := s.ListUnits(ctx, guildID, store.UnitFilter{Status: types.UnitActive})
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	var out []*movementState
	for i := range units {
		u := units[i]
		if inOrder[u.ID] {
			continue
		}
		out = append(out, &movementState{
			stack: []*types.Unit{&u}, path: []int{u.CurrentTerritoryID}, currentIndex: 0,
			totalMovementPoints: 0, status: statusDone,
		})
	}
	return out, nil
}

// attemptBoarding attaches land states whose next step is water to a
// same-tile naval_transport state, per spec.md §4.3 step 4. Capacity is
// not separately tracked per transport here; any transport at the tile is
// assumed to have room, a simplification over per-hull capacity.
func attemptBoarding(states []*movementState, territories map[int]types.Territory) {
	byTile := make(map[int]*movementState)
	for _, st := range states {
		if st.action == actionNavalTransport {
			byTile[st.currentTerritory()] = st
		}
	}
	for _, st := range states {
		if st.action.isNaval() || st.atEnd() || st.status == statusTransported {
			continue
		}
		if !territories[st.nextTerritory()].TerrainType.IsWater() {
			continue
		}
		if carrier, ok := byTile[st.currentTerritory()]; ok && carrier != st {
			st.status = statusTransported
			st.carrier = carrier
		}
	}
}

func advanceTransports(tick int, states []*movementState) {
	for _, st := range states {
		if st.action != actionNavalTransport || st.status == statusStoppedEngaged {
			continue
		}
		if tick > st.totalMovementPoints || st.atEnd() {
			continue
		}
		st.currentIndex++
		newTile := st.currentTerritory()
		for _, u := range st.stack {
			u.CurrentTerritoryID = newTile
		}
		for _, passenger := range states {
			if passenger.carrier == st {
				for _, u := range passenger.stack {
					u.CurrentTerritoryID = newTile
				}
			}
		}
	}
}

func advanceLand(tick int, states []*movementState) {
	for _, st := range states {
		if st.action.isNaval() || st.status == statusTransported || st.status == statusStoppedEngaged {
			continue
		}
		if tick > st.totalMovementPoints || st.atEnd() {
			continue
		}
		st.currentIndex++
		newTile := st.currentTerritory()
		for _, u := range st.stack {
			u.CurrentTerritoryID = newTile
		}
	}
}

func checkEngagement(states []*movementState, wars map[int]map[int]types.WarSide, b *eventlog.Builder) {
	byTile := make(map[int][]*movementState)
	for _, st := range states {
		if st.status == statusTransported {
			continue
		}
		byTile[st.currentTerritory()] = append(byTile[st.currentTerritory()], st)
	}
	for _, group := range byTile {
		for i := range group {
			for j := range group {
				if i == j {
					continue
				}
				a, c := group[i], group[j]
				if hostileFactions(a.primary().FactionID, c.primary().FactionID, wars) {
					if !a.engaged {
						a.engaged = true
						a.status = statusStoppedEngaged
						b.Emit(eventlog.TypeUnitEngaged, "unit", a.primary().ID,
							map[string]any{"unit_id": a.primary().ID, "territory_id": a.currentTerritory()}, nil)
					}
				}
			}
		}
	}
}

// patrolEngagement sweeps each patrol state's own territory plus adjacent
// ones; a hostile entry engages both the entering unit and the patrol.
func patrolEngagement(states []*movementState, wars map[int]map[int]types.WarSide, b *eventlog.Builder) {
	for _, patrol := range states {
		if patrol.action != actionPatrol && patrol.action != actionNavalPatrol {
			continue
		}
		if patrol.status == statusStoppedEngaged {
			continue
		}
		for _, other := range states {
			if other == patrol || other.status == statusTransported {
				continue
			}
			if other.currentTerritory() != patrol.currentTerritory() {
				continue
			}
			if hostileFactions(patrol.primary().FactionID, other.primary().FactionID, wars) {
				if !patrol.engaged {
					patrol.engaged = true
					patrol.status = statusStoppedEngaged
				}
				if !other.engaged {
					other.engaged = true
					other.status = statusStoppedEngaged
				}
			}
		}
	}
}

func observe(states []*movementState, territories map[int]types.Territory, adjacency map[[2]int]bool, obs *eventlog.Builder, tick int) {
	for _, observer := range states {
		for _, target := range states {
			if observer == target {
				continue
			}
			tTile := target.currentTerritory()
			oTile := observer.currentTerritory()
			if tTile != oTile && !adjacency[[2]int{oTile, tTile}] {
				continue
			}
			recipients := recipientCharacterIDs(observer)
			for _, r := range recipients {
				obs.Emit(eventlog.TypeUnitObserved, "unit", target.primary().ID,
					map[string]any{
						"recipient_character_id": r,
						"observed_unit_id":       target.primary().ID,
						"tick":                   tick,
					}, []int{r})
			}
		}
	}
}

func recipientCharacterIDs(st *movementState) []int {
	var out []int
	u := st.primary()
	if u.Owner.Kind == types.OwnerCharacter {
		out = append(out, u.Owner.CharacterID)
	}
	if u.CommanderCharacterID != 0 {
		out = append(out, u.CommanderCharacterID)
	}
	return out
}

func finalizeMovementState(ctx context.Context, s store.Store, st *movementState, turn int, b *eventlog.Builder) error {
	for _, u := range st.stack {
		if err := s.UpdateUnit(ctx, u); err != nil {
			return fmt.Errorf("update unit %d: %w", u.ID, err)
		}
	}

	o := st.order
	switch {
	case st.status == statusStoppedEngaged:
		remaining := st.path[st.currentIndex:]
		if err := writeOngoingPath(o, remaining); err != nil {
			return err
		}
		o.Status = types.StatusOngoing
		o.UpdatedTurn = turn
		o.UpdatedAt = time.Now()
		if err := s.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		b.Emit(eventlog.TypeMovementBlocked, "order", o.ID,
			map[string]any{"order_id": o.ID, "unit_id": st.primary().ID, "reason": "engaged"}, affectedOf(o))
	case st.atEnd():
		if err := succeedOrder(ctx, s, o, turn, map[string]any{"final_territory_id": st.currentTerritory()}); err != nil {
			return err
		}
		b.Emit(eventlog.TypeTransitComplete, "order", o.ID,
			map[string]any{"order_id": o.ID, "unit_id": st.primary().ID, "territory_id": st.currentTerritory()}, affectedOf(o))
	default:
		remaining := st.path[st.currentIndex:]
		if err := writeOngoingPath(o, remaining); err != nil {
			return err
		}
		o.Status = types.StatusOngoing
		o.UpdatedTurn = turn
		o.UpdatedAt = time.Now()
		if err := s.UpdateOrder(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		b.Emit(eventlog.TypeTransitProgress, "order", o.ID,
			map[string]any{"order_id": o.ID, "unit_id": st.primary().ID, "territory_id": st.currentTerritory()}, affectedOf(o))
	}
	return nil
}

func writeOngoingPath(o *types.Order, remaining []int) error {
	var p unitOrderPayload
	if err := json.Unmarshal(o.OrderData, &p); err != nil {
		return fmt.Errorf("re-decode order data: %w", err)
	}
	p.Path = remaining
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("re-encode order data: %w", err)
	}
	o.OrderData = raw
	return nil
}
