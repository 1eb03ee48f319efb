package types

import "time"

// AllianceStatus is the two-step handshake state of an Alliance row.
type AllianceStatus string

const (
	AlliancePendingA AllianceStatus = "PENDING_FACTION_A"
	AlliancePendingB AllianceStatus = "PENDING_FACTION_B"
	AllianceActive   AllianceStatus = "ACTIVE"
)

// Alliance is stored with a canonical ordering FactionAID < FactionBID so
// the pair is unique regardless of which side queries it.
type Alliance struct {
	GuildID           int
	FactionAID        int
	FactionBID        int
	Status            AllianceStatus
	InitiatedByFaction int
	CreatedAt         time.Time
	ActivatedAt       *time.Time
}

// CanonicalPair returns (a, b) with a < b, swapping if necessary.
func CanonicalPair(x, y int) (int, int) {
	if x < y {
		return x, y
	}
	return y, x
}

// WarSide is one of the two sides of a War.
type WarSide string

const (
	SideA WarSide = "SIDE_A"
	SideB WarSide = "SIDE_B"
)

// War is a declared state of conflict between one or more factions per side.
type War struct {
	ID           int
	GuildID      int
	WarID        string
	Objective    string
	DeclaredTurn int
}

// WarParticipant records one faction's membership and side in a War.
type WarParticipant struct {
	GuildID          int
	WarID            int
	FactionID        int
	Side             WarSide
	JoinedTurn       int
	IsOriginalDeclarer bool
}
