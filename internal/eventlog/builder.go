package eventlog

// Builder accumulates events for a single phase invocation. Phase handlers
// are handed a *Builder instead of appending to a shared slice directly so
// that event insertion order within a phase always matches the order in
// which handlers ran, per spec.md §5's ordering guarantee.
type Builder struct {
	turn    int
	phase   string
	guildID int
	events  []Event
}

// NewBuilder creates a Builder scoped to one phase of one turn.
func NewBuilder(guildID, turn int, phase string) *Builder {
	return &Builder{guildID: guildID, turn: turn, phase: phase}
}

// Emit appends one event. affectedCharacterIDs is always written into
// EventData, even when empty, so every event satisfies the "EventData MUST
// contain affected_character_ids" contract without each call site
// remembering to set it.
func (b *Builder) Emit(eventType Type, entityType string, entityID int, data map[string]any, affectedCharacterIDs []int) Event {
	if data == nil {
		data = map[string]any{}
	}
	if affectedCharacterIDs == nil {
		affectedCharacterIDs = []int{}
	}
	data["affected_character_ids"] = affectedCharacterIDs

	ev := Event{
		TurnNumber: b.turn,
		Phase:      b.phase,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		GuildID:    b.guildID,
		EventData:  data,
	}
	b.events = append(b.events, ev)
	return ev
}

// Events returns the accumulated events in append order.
func (b *Builder) Events() []Event {
	return b.events
}

// Len reports how many events have been accumulated so far.
func (b *Builder) Len() int {
	return len(b.events)
}
