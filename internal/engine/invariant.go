package engine

import (
	"context"
	"fmt"

	"github.com/legionforge/engine/internal/store"
	"github.com/legionforge/engine/internal/types"
)

// mustInvariant returns an error describing the failed invariant when cond
// is false, nil otherwise. A non-nil return aborts ResolveTurn — it is a
// programmer assertion, not a recoverable order-level failure, so it is
// never surfaced as an eventlog.Event the way a handler's own validation
// failures are.
func mustInvariant(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return fmt.Errorf("invariant violated: "+format, args...)
}

// checkPostOrganizationInvariants asserts that every ACTIVE unit and
// building has a positive organization/durability value. Durability and
// Organization are plain ints that may go negative between Upkeep (which
// deducts them) and Organization (which disbands/destroys anything at or
// below zero), so the invariant is only meaningful, and only checked, once
// Organization has had its pass — checking after Upkeep would fire on
// ordinary mid-turn state.
func checkPostOrganizationInvariants(ctx context.Context, s store.Store, guildID int) error {
	units, err := s.ListUnits(ctx, guildID, store.UnitFilter{Status: types.UnitActive})
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}
	for _, u := range units {
		if err := mustInvariant(u.Organization > 0,
			"active unit %d has non-positive organization %d after organization phase", u.ID, u.Organization); err != nil {
			return err
		}
	}

	buildings, err := s.ListBuildings(ctx, guildID, types.BuildingActive)
	if err != nil {
		return fmt.Errorf("list buildings: %w", err)
	}
	for _, b := range buildings {
		if err := mustInvariant(b.Durability > 0,
			"active building %d has non-positive durability %d after organization phase", b.ID, b.Durability); err != nil {
			return err
		}
	}
	return nil
}
