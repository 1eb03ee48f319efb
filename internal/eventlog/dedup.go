package eventlog

// DedupObservations collapses a set of raw UNIT_OBSERVED events to at most
// one per (recipient_character_id, observed_unit_id) pair, keeping the
// highest "tick" value seen. Per spec.md §4.3 step 8 / §9 design note, this
// runs once after all movement ticks, before the events are appended to
// the log.
func DedupObservations(raw []Event) []Event {
	type key struct {
		recipient int
		unitID    int
	}
	best := make(map[key]Event)
	order := make([]key, 0, len(raw))

	for _, ev := range raw {
		if ev.EventType != TypeUnitObserved {
			continue
		}
		recipient, _ := ev.EventData["recipient_character_id"].(int)
		unitID, _ := ev.EventData["observed_unit_id"].(int)
		tick, _ := ev.EventData["tick"].(int)

		k := key{recipient: recipient, unitID: unitID}
		existing, seen := best[k]
		if !seen {
			order = append(order, k)
			best[k] = ev
			continue
		}
		existingTick, _ := existing.EventData["tick"].(int)
		if tick > existingTick {
			best[k] = ev
		}
	}

	out := make([]Event, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}
