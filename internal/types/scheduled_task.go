package types

import "time"

// ScheduledTask is a row in the Hawky task queue. Parameter is a string —
// the source's Option[str] typo on this field (spec.md §9 open question)
// is resolved here by observing every call site passes a concrete value;
// see DESIGN.md.
type ScheduledTask struct {
	ID             int
	GuildID        int
	Task           string
	Parameter      string
	ScheduledTime  time.Time
	RecipientID    string
	SenderID       string
}
