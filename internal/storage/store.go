// Package storage defines the persistence contract the quest engine runs
// against. The postgres subpackage provides the production implementation;
// engine tests substitute an in-memory fake.
package storage

import (
	"context"
	"time"

	"github.com/fablebot/fablebot/internal/game/character"
	"github.com/fablebot/fablebot/internal/game/effect"
	"github.com/fablebot/fablebot/internal/game/loot"
	"github.com/fablebot/fablebot/internal/game/quest"
)

// Store is the full persistence surface of the quest engine. Implementations
// return the domain sentinel errors (character.ErrNotFound,
// quest.ErrNoActiveAssignment, quest.ErrActiveAssignmentExists) so callers
// can branch with errors.Is.
type Store interface {
	// Characters.
	GetCharacter(ctx context.Context, id int64) (*character.Character, error)
	ListAliveCharacters(ctx context.Context, chatID int64) ([]*character.Character, error)
	UpdateCharacterProgress(ctx context.Context, c *character.Character) error
	AddEffect(ctx context.Context, characterID int64, a effect.Active) error
	ListEffects(ctx context.Context, characterID int64) ([]effect.Active, error)
	DecayEffects(ctx context.Context, characterID int64) error

	// Assignments and daily counters.
	CreateAssignment(ctx context.Context, a *quest.Assignment) (*quest.Assignment, error)
	GetActiveAssignment(ctx context.Context, chatID int64, now time.Time) (*quest.Assignment, error)
	CompleteAssignment(ctx context.Context, id int64) (bool, error)
	SweepExpiredAssignments(ctx context.Context, now time.Time) (int64, error)
	DailyCount(ctx context.Context, chatID int64, day time.Time) (int, error)
	IncrementDailyCount(ctx context.Context, chatID int64, day time.Time) (int, error)

	// Items.
	CreateItem(ctx context.Context, item *loot.Item) (*loot.Item, error)
	AddItemToInventory(ctx context.Context, characterID, itemID int64, quantity int) error

	// History.
	RecordHistory(ctx context.Context, e *quest.HistoryEntry) (*quest.HistoryEntry, error)

	// InTx runs fn against a transactional view of the store. fn returning an
	// error rolls every write back.
	InTx(ctx context.Context, fn func(Store) error) error
}
