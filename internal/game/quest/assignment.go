package quest

import (
	"errors"
	"time"
)

// ErrNoActiveAssignment is returned by assignment stores when a chat has no
// resolvable assignment.
var ErrNoActiveAssignment = errors.New("no active assignment")

// ErrActiveAssignmentExists is returned by assignment stores when a chat
// already has an uncompleted assignment.
var ErrActiveAssignmentExists = errors.New("active assignment already exists")

// Assignment links a chat to the quest it is currently allowed to attempt.
// At most one assignment per chat may have Completed == false and
// ExpiresAt > now; the store enforces this with a partial unique index.
type Assignment struct {
	ID         int64
	ChatID     int64
	TemplateID string
	AssignedAt time.Time
	ExpiresAt  time.Time
	Completed  bool
}

// ActiveAt reports whether the assignment can still be resolved at now.
func (a *Assignment) ActiveAt(now time.Time) bool {
	return !a.Completed && a.ExpiresAt.After(now)
}

// DailyCounter tracks quests assigned to a chat on one calendar day.
type DailyCounter struct {
	ChatID int64
	Day    time.Time // truncated to the calendar day in the serving time zone
	Count  int
}
