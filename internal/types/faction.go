package types

// PermissionType names a delegable faction permission. The leader holds
// every permission implicitly and never needs a row of their own.
type PermissionType string

const (
	PermissionCommand   PermissionType = "COMMAND"
	PermissionFinancial PermissionType = "FINANCIAL"
)

// Faction is a player organization within a guild.
type Faction struct {
	ID                    int
	GuildID               int
	FactionID             string
	LeaderCharacterID      int // 0 means none
	Nation                string
	CreatedTurn           int
	StartingTerritoryCount int
	Spending              ResourceSet
}

// FactionMember records a character's membership in a faction.
type FactionMember struct {
	GuildID     int
	FactionID   int
	CharacterID int
	JoinedTurn  int
}

// FactionPermission grants a non-leader member a specific permission.
type FactionPermission struct {
	GuildID        int
	FactionID      int
	CharacterID    int
	PermissionType PermissionType
}
