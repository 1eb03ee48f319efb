package sqlstore

import "github.com/legionforge/engine/internal/types"

// ownerColumns splits an Owner into the three-column shape every table
// storing one uses, mirroring the tagged-union-over-nullable-twin-columns
// design the Owner type itself documents.
func ownerColumns(o types.Owner) (kind string, characterID, factionID int) {
	return string(o.Kind), o.CharacterID, o.FactionID
}

func ownerFromColumns(kind string, characterID, factionID int) types.Owner {
	switch types.OwnerKind(kind) {
	case types.OwnerCharacter:
		return types.OwnedByCharacter(characterID)
	case types.OwnerFaction:
		return types.OwnedByFaction(factionID)
	default:
		return types.Unowned()
	}
}
