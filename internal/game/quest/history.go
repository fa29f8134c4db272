package quest

import "time"

// HistoryEntry is a write-once audit record of one quest resolution. Rows are
// only ever inserted; nothing in the engine updates or deletes them.
type HistoryEntry struct {
	ID           int64
	ChatID       int64
	CharacterID  int64
	AssignmentID int64
	TemplateID   string

	Roll      int
	Modifier  int
	Total     int
	TierRange string // Raw form of the matched tier's range
	Success   bool
	Critical  bool

	XPAwarded   int
	GoldDelta   int
	DamageTaken int
	ItemIDs     []int64

	ResolvedAt time.Time
}
