// Package engine is the turn orchestrator: it runs the nine fixed-order
// phases for one guild inside a single store transaction, appends every
// emitted event to the durable log, and advances the guild's turn counter.
// No phase handler in internal/phases calls Store.AppendEvents itself —
// this package is the one place that does, so the whole turn's events land
// atomically with the phase mutations that produced them.
package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/legionforge/engine/internal/eventlog"
	"github.com/legionforge/engine/internal/orders"
	"github.com/legionforge/engine/internal/phases"
	"github.com/legionforge/engine/internal/store"
)

// tracer and meter are acquired against whatever global provider is
// installed, the same package-level acquisition the teacher's dolt store
// uses for its own SQL spans — a no-op provider until observability.Init
// runs, a real one after.
var tracer = otel.Tracer("github.com/legionforge/engine/internal/engine")
var meter = otel.Meter("github.com/legionforge/engine/internal/engine")

var turnsResolved metric.Int64Counter
var eventsEmitted metric.Int64Counter

func init() {
	turnsResolved, _ = meter.Int64Counter("legion.turns_resolved",
		metric.WithDescription("Completed ResolveTurn calls, by guild"),
		metric.WithUnit("{turn}"),
	)
	eventsEmitted, _ = meter.Int64Counter("legion.phase_events_emitted",
		metric.WithDescription("Events appended to the turn log, by phase"),
		metric.WithUnit("{event}"),
	)
}

// ResolveTurn runs Beginning through Construction for guildID's current
// turn inside one Store.WithTx, appends every phase's events to the log in
// phase order, and advances the guild's turn counter. A mid-phase failure
// (a store error or a mustInvariant violation) rolls back every mutation
// the call made, per spec.md §5 — Guild.CurrentTurn is left unadvanced and
// no event from this attempt is ever appended.
func ResolveTurn(ctx context.Context, s store.Store, guildID int) ([]eventlog.Event, error) {
	ctx, span := tracer.Start(ctx, "engine.resolve_turn",
		trace.WithAttributes(attribute.Int("guild_id", guildID)))
	defer span.End()

	var allEvents []eventlog.Event

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		guild, err := tx.GetGuild(ctx, guildID)
		if err != nil {
			return fmt.Errorf("get guild: %w", err)
		}
		turn := guild.CurrentTurn

		encircled := map[int]bool{}

		for _, phase := range orders.Phases {
			events, err := runPhase(ctx, tx, phase, guildID, turn, encircled)
			if err != nil {
				return fmt.Errorf("%s phase: %w", phase, err)
			}

			if phase == orders.PhaseEncirclement {
				for _, ev := range events {
					if ev.EventType == eventlog.TypeUnitEncircled && ev.EntityType == "unit" {
						encircled[ev.EntityID] = true
					}
				}
			}
			if phase == orders.PhaseOrganization {
				if err := checkPostOrganizationInvariants(ctx, tx, guildID); err != nil {
					return err
				}
			}

			eventsEmitted.Add(ctx, int64(len(events)), metric.WithAttributes(
				attribute.Int("guild_id", guildID), attribute.String("phase", string(phase))))
			allEvents = append(allEvents, events...)
		}

		if len(allEvents) > 0 {
			if err := tx.AppendEvents(ctx, guildID, turn, allEvents); err != nil {
				return fmt.Errorf("append events: %w", err)
			}
		}
		return tx.AdvanceTurn(ctx, guildID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	turnsResolved.Add(ctx, 1, metric.WithAttributes(attribute.Int("guild_id", guildID)))
	return allEvents, nil
}

// runPhase dispatches to the one phase handler named by phase. Upkeep is
// the only handler with a signature wider than (ctx, s, guildID, turn) —
// it additionally takes the encircled-unit set Encirclement built earlier
// in the same turn.
func runPhase(ctx context.Context, s store.Store, phase orders.Phase, guildID, turn int, encircled map[int]bool) ([]eventlog.Event, error) {
	ctx, span := tracer.Start(ctx, "engine.phase",
		trace.WithAttributes(attribute.String("phase", string(phase)), attribute.Int("turn", turn)))
	defer span.End()

	var events []eventlog.Event
	var err error

	switch phase {
	case orders.PhaseBeginning:
		events, err = phases.RunBeginning(ctx, s, guildID, turn)
	case orders.PhaseMovement:
		events, err = phases.RunMovement(ctx, s, guildID, turn)
	case orders.PhaseCombat:
		events, err = phases.RunCombat(ctx, s, guildID, turn)
	case orders.PhaseResourceCollection:
		events, err = phases.RunResourceCollection(ctx, s, guildID, turn)
	case orders.PhaseResourceTransfer:
		events, err = phases.RunResourceTransfer(ctx, s, guildID, turn)
	case orders.PhaseEncirclement:
		events, err = phases.RunEncirclement(ctx, s, guildID, turn)
	case orders.PhaseUpkeep:
		events, err = phases.RunUpkeep(ctx, s, guildID, turn, encircled)
	case orders.PhaseOrganization:
		events, err = phases.RunOrganization(ctx, s, guildID, turn)
	case orders.PhaseConstruction:
		events, err = phases.RunConstruction(ctx, s, guildID, turn)
	default:
		return nil, fmt.Errorf("no handler registered for phase %s", phase)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return events, err
}
