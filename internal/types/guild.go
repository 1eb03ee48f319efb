package types

// Guild is a single isolated game instance. Every other entity carries a
// GuildID and is never fetched or mutated across guilds.
type Guild struct {
	ID              int
	GuildID         string
	CurrentTurn     int
	MaxMovementStat int
}

// Character is a player-controlled persona. A character may belong to many
// factions but represents exactly one at a time.
type Character struct {
	ID                       int
	GuildID                  int
	Identifier               string
	UserID                   string
	RepresentedFactionID     int // 0 means none
	RepresentationChangedTurn int
	VictoryPoints            int
	Production               ResourceSet
}
