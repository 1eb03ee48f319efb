package types

import "time"

// Evidence is an append-only GM annotation attached to an arbitrary entity,
// independent of the turn event log. See SPEC_FULL.md §9.
type Evidence struct {
	ID         int
	GuildID    int
	EntityType string
	EntityID   int
	Note       string
	CreatedAt  time.Time
	CreatedBy  string
}
